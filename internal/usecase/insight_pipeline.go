package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"VitaPull/internal/domain/models"
	domrepo "VitaPull/internal/domain/repository"
	domsvc "VitaPull/internal/domain/service"
	"VitaPull/pkg/logger"
)

// InsightPipeline runs the analytics stages over the stored daily history and
// assembles the consolidated report. Stage failures are recorded in the
// report's Skipped map and never abort the run; only failing to load the
// history itself is fatal.
type InsightPipeline struct {
	store     domrepo.RecordStore
	alerts    domrepo.AlertPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	estimator domsvc.BaselineEstimator

	// detector and synthesizer are built per run: sigma and target are
	// request-scoped.
	newDetector    func(sigma float64) domsvc.AnomalyDetector
	newSynthesizer func(target string) domsvc.FeatureSynthesizer
	trainer        domsvc.ForecastTrainer

	timeout time.Duration
}

func NewInsightPipeline(
	store domrepo.RecordStore,
	alerts domrepo.AlertPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	estimator domsvc.BaselineEstimator,
	newDetector func(sigma float64) domsvc.AnomalyDetector,
	newSynthesizer func(target string) domsvc.FeatureSynthesizer,
	trainer domsvc.ForecastTrainer,
) *InsightPipeline {
	return &InsightPipeline{
		store:          store,
		alerts:         alerts,
		metrics:        metrics,
		log:            log,
		estimator:      estimator,
		newDetector:    newDetector,
		newSynthesizer: newSynthesizer,
		trainer:        trainer,
		timeout:        30 * time.Second,
	}
}

type BuildReportParams struct {
	Days   int
	Target string
	Sigma  float64
}

func (p *BuildReportParams) normalize() {
	if p.Days <= 0 {
		p.Days = 90
	}
	if p.Target == "" {
		p.Target = models.MetricReadinessScore
	}
	if p.Sigma <= 0 {
		p.Sigma = 2
	}
}

func (uc *InsightPipeline) BuildReport(ctx context.Context, p BuildReportParams) (*models.InsightReport, error) {
	p.normalize()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	started := time.Now()
	records, err := uc.store.GetLastNDays(ctx, p.Days)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	models.SortRecords(records)

	report := &models.InsightReport{
		GeneratedAt: time.Now().UTC(),
		Days:        p.Days,
		Skipped:     map[string]string{},
	}

	type item struct {
		stage string
		val   interface{}
		err   error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	// Baselines feed anomaly detection, so the two run on one branch; the
	// forecast branch is independent.
	wg.Add(1)
	go func() {
		defer wg.Done()
		baselines, err := uc.runBaselines(records)
		ch <- item{models.StageBaselines, baselines, err}
		if err != nil {
			ch <- item{models.StageAnomalies, nil, fmt.Errorf("no baselines: %w", err)}
			return
		}
		flags, err := uc.runAnomalies(records, baselines, p.Sigma)
		ch <- item{models.StageAnomalies, flags, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		summary, err := uc.runForecast(records, p.Target)
		ch <- item{models.StageForecast, summary, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			report.Skipped[it.stage] = it.err.Error()
			if uc.metrics != nil {
				uc.metrics.RecordStageSkipped(it.stage, it.err.Error())
			}
			uc.log.Warn("analytics stage skipped",
				logger.String("stage", it.stage),
				logger.Error(it.err))
			continue
		}
		switch it.stage {
		case models.StageBaselines:
			report.Baselines = it.val.(map[string]models.Baseline)
		case models.StageAnomalies:
			report.Anomalies = it.val.([]models.AnomalyFlag)
		case models.StageForecast:
			report.Forecast = it.val.(*models.ForecastSummary)
		}
	}

	uc.publishAlerts(ctx, report.Anomalies)
	if uc.metrics != nil {
		uc.metrics.RecordLatency("build_report", time.Since(started).Seconds())
	}
	if len(report.Skipped) == 0 {
		report.Skipped = nil
	}
	return report, nil
}

// runBaselines estimates baselines for every metric observed in the history,
// not just the static score set, so contributor sub-metrics are covered too.
func (uc *InsightPipeline) runBaselines(records []models.DailyRecord) (out map[string]models.Baseline, err error) {
	defer recoverStage(&err)
	return uc.estimator.Estimate(records, observedMetrics(records))
}

func (uc *InsightPipeline) runAnomalies(records []models.DailyRecord, baselines map[string]models.Baseline, sigma float64) (flags []models.AnomalyFlag, err error) {
	defer recoverStage(&err)
	det := uc.newDetector(sigma)
	for _, metric := range models.ScoreMetrics() {
		base, ok := baselines[metric]
		if !ok {
			continue
		}
		fs, derr := det.Detect(records, metric, base)
		if derr != nil {
			return nil, derr
		}
		flags = append(flags, fs...)
	}
	sort.SliceStable(flags, func(i, j int) bool { return flags[i].Day.Before(flags[j].Day) })
	if uc.metrics != nil {
		uc.metrics.RecordAnomalyCount("all", len(flags))
	}
	return flags, nil
}

func (uc *InsightPipeline) runForecast(records []models.DailyRecord, target string) (sum *models.ForecastSummary, err error) {
	defer recoverStage(&err)
	table, err := uc.newSynthesizer(target).Synthesize(records)
	if err != nil {
		return nil, err
	}
	sum, err = uc.trainer.TrainEvaluate(table)
	if err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.RecordForecastScore(target, sum.MAE, sum.R2)
	}
	return sum, nil
}

func (uc *InsightPipeline) publishAlerts(ctx context.Context, flags []models.AnomalyFlag) {
	if uc.alerts == nil || len(flags) == 0 {
		return
	}
	if err := uc.alerts.PublishAlertBatch(ctx, flags); err != nil {
		uc.log.Error("publish anomaly alerts", logger.Error(err), logger.Int("count", len(flags)))
		if uc.metrics != nil {
			uc.metrics.RecordError("alert_publish")
		}
	}
}

// recoverStage converts a stage panic into a reported skip so one bad stage
// cannot take down the whole report.
func recoverStage(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("stage panic: %v", r)
	}
}

func observedMetrics(records []models.DailyRecord) []string {
	seen := make(map[string]bool)
	for i := range records {
		for name := range records[i].Metrics {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
