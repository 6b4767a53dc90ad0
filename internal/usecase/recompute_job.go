package usecase

import (
	"context"
	"fmt"

	"VitaPull/pkg/logger"
	"VitaPull/pkg/queue"
)

// RecomputeMessageType is the queue message type for report recomputation.
const RecomputeMessageType = "insights.recompute"

// RecomputePayload asks for a fresh report over the given window.
type RecomputePayload struct {
	Days   int     `json:"days"`
	Target string  `json:"target"`
	Sigma  float64 `json:"sigma"`
}

// RecomputeJob rebuilds the insight report off the request path. The sync
// loop enqueues one after each completed window so dashboards read warm
// results and anomaly alerts go out without waiting for an API call.
type RecomputeJob struct {
	pipeline *InsightPipeline
	log      *logger.Logger
}

func NewRecomputeJob(pipeline *InsightPipeline, log *logger.Logger) *RecomputeJob {
	return &RecomputeJob{pipeline: pipeline, log: log}
}

func (j *RecomputeJob) Name() string { return "insight-recompute" }

func (j *RecomputeJob) Type() string { return RecomputeMessageType }

func (j *RecomputeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RecomputePayload](payload)
	if err != nil {
		return fmt.Errorf("recompute payload: %w", err)
	}
	report, err := j.pipeline.BuildReport(ctx, BuildReportParams{
		Days:   p.Days,
		Target: p.Target,
		Sigma:  p.Sigma,
	})
	if err != nil {
		return fmt.Errorf("recompute report: %w", err)
	}
	j.log.Info("insight report recomputed",
		logger.Int("days", report.Days),
		logger.Int("anomalies", len(report.Anomalies)),
		logger.Int("skipped_stages", len(report.Skipped)))
	return nil
}

var _ queue.Job = (*RecomputeJob)(nil)
