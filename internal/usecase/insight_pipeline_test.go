package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"VitaPull/internal/domain/models"
	domsvc "VitaPull/internal/domain/service"
	"VitaPull/internal/services/analytics"
	"VitaPull/internal/services/features"
	"VitaPull/pkg/logger"
)

func day(i int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

type fakeStore struct {
	records []models.DailyRecord
	err     error
}

func (s *fakeStore) Init(ctx context.Context) error { return nil }
func (s *fakeStore) Upsert(ctx context.Context, r *models.DailyRecord) error { return nil }
func (s *fakeStore) UpsertBatch(ctx context.Context, rs []*models.DailyRecord) error { return nil }
func (s *fakeStore) GetRange(ctx context.Context, from, to time.Time) ([]models.DailyRecord, error) {
	return s.records, s.err
}
func (s *fakeStore) GetLastNDays(ctx context.Context, n int) ([]models.DailyRecord, error) {
	return s.records, s.err
}
func (s *fakeStore) Health(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error { return nil }

type fakeAlerts struct {
	batches [][]models.AnomalyFlag
}

func (a *fakeAlerts) PublishAlert(ctx context.Context, f *models.AnomalyFlag) error { return nil }
func (a *fakeAlerts) PublishAlertBatch(ctx context.Context, fs []models.AnomalyFlag) error {
	a.batches = append(a.batches, fs)
	return nil
}
func (a *fakeAlerts) Close() error { return nil }

func testPipeline(store *fakeStore, alerts *fakeAlerts) *InsightPipeline {
	l, _ := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	trainCfg := analytics.DefaultTrainerConfig()
	trainCfg.Forest.Trees = 10
	return NewInsightPipeline(
		store, alerts, nil, l,
		analytics.NewEstimator(),
		func(sigma float64) domsvc.AnomalyDetector { return analytics.NewDetector(sigma) },
		func(target string) domsvc.FeatureSynthesizer {
			cfg := features.DefaultConfig()
			if target != "" {
				cfg.Target = target
			}
			return features.NewSynthesizer(cfg)
		},
		analytics.NewTrainer(trainCfg),
	)
}

func healthyHistory(n int) []models.DailyRecord {
	out := make([]models.DailyRecord, n)
	for i := range out {
		out[i] = models.DailyRecord{Day: day(i)}
		out[i].Set(models.MetricReadinessScore, 65+float64(i%10))
		out[i].Set(models.MetricSleepScore, 70+float64((i+3)%7))
		out[i].Set(models.MetricSteps, 8000+float64(i*50))
	}
	return out
}

func TestBuildReportAllStages(t *testing.T) {
	store := &fakeStore{records: healthyHistory(40)}
	uc := testPipeline(store, nil)

	report, err := uc.BuildReport(context.Background(), BuildReportParams{Days: 40})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Skipped != nil {
		t.Fatalf("no stage should be skipped, got %v", report.Skipped)
	}
	if len(report.Baselines) == 0 {
		t.Fatalf("expected baselines")
	}
	if _, ok := report.Baselines[models.MetricSteps]; !ok {
		t.Fatalf("every observed metric should have a baseline")
	}
	if report.Forecast == nil {
		t.Fatalf("expected forecast summary")
	}
	if report.Forecast.TrainRows+report.Forecast.TestRows != 39 {
		t.Fatalf("unexpected split %d/%d", report.Forecast.TrainRows, report.Forecast.TestRows)
	}
}

func TestBuildReportSingleRecord(t *testing.T) {
	rec := models.DailyRecord{Day: day(0)}
	rec.Set(models.MetricReadinessScore, 70)
	store := &fakeStore{records: []models.DailyRecord{rec}}
	uc := testPipeline(store, nil)

	report, err := uc.BuildReport(context.Background(), BuildReportParams{Days: 30})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	// one observation: baseline exists with undefined deviation, nothing is
	// flagged, and the forecast is skipped rather than failing the run
	b, ok := report.Baselines[models.MetricReadinessScore]
	if !ok || b.Count != 1 || b.Std != 0 {
		t.Fatalf("unexpected baseline %+v", b)
	}
	if len(report.Anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %d", len(report.Anomalies))
	}
	reason, ok := report.Skipped[models.StageForecast]
	if !ok {
		t.Fatalf("forecast should be skipped, skipped=%v", report.Skipped)
	}
	if !strings.Contains(reason, models.ErrInsufficientData.Error()) {
		t.Fatalf("unexpected skip reason %q", reason)
	}
}

func TestBuildReportEmptyStore(t *testing.T) {
	store := &fakeStore{}
	uc := testPipeline(store, nil)

	report, err := uc.BuildReport(context.Background(), BuildReportParams{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	// every stage reports, none aborts the run
	for _, stage := range []string{models.StageBaselines, models.StageAnomalies, models.StageForecast} {
		if _, ok := report.Skipped[stage]; !ok {
			t.Fatalf("stage %s should be skipped on empty history, skipped=%v", stage, report.Skipped)
		}
	}
}

func TestBuildReportStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	uc := testPipeline(store, nil)
	if _, err := uc.BuildReport(context.Background(), BuildReportParams{}); err == nil {
		t.Fatalf("store failure must be fatal")
	}
}

func TestBuildReportPublishesAlerts(t *testing.T) {
	records := healthyHistory(20)
	records[10].Set(models.MetricReadinessScore, 5) // far outside the band
	store := &fakeStore{records: records}
	alerts := &fakeAlerts{}
	uc := testPipeline(store, alerts)

	report, err := uc.BuildReport(context.Background(), BuildReportParams{Days: 20})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Anomalies) == 0 {
		t.Fatalf("expected the outlier flagged")
	}
	if len(alerts.batches) != 1 || len(alerts.batches[0]) != len(report.Anomalies) {
		t.Fatalf("alerts not published: %v", alerts.batches)
	}
}
