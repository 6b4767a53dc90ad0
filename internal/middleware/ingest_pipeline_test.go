package middleware

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"VitaPull/internal/domain/models"
)

type countingProc struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *countingProc) Process(ctx context.Context, r *models.DailyRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *countingProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordRecordStored(string) {}
func (m *countingMetrics) RecordStageSkipped(string, string) {}
func (m *countingMetrics) RecordAnomalyCount(string, int) {}
func (m *countingMetrics) RecordForecastScore(string, float64, float64) {}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errors == nil {
		m.errors = map[string]int{}
	}
	m.errors[kind]++
}

func (m *countingMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func record(dayOffset int, metric string, v float64) *models.DailyRecord {
	r := &models.DailyRecord{Day: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset)}
	r.Set(metric, v)
	return r
}

func TestProcessValidation(t *testing.T) {
	proc := &countingProc{}
	met := &countingMetrics{}
	p := NewIngestPipeline(proc, met)

	cases := []*models.DailyRecord{
		nil,
		{Metrics: map[string]float64{models.MetricSteps: 100}},                   // day unset
		{Day: time.Now()},                                                        // no metrics
		record(0, "heart_rate_variability_banana", 1),                            // unknown metric
		record(0, models.MetricSteps, math.NaN()),
		record(0, models.MetricSleepScore, math.Inf(1)),
	}
	for i, r := range cases {
		if err := p.Process(context.Background(), r); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("invalid records must not reach downstream, got %d calls", proc.count())
	}
	if met.errCount("pipeline_validate") != len(cases) {
		t.Fatalf("expected %d validate errors, got %d", len(cases), met.errCount("pipeline_validate"))
	}

	// contributor sub-metrics pass the schema check
	if err := p.Process(context.Background(), record(1, models.ContributorPrefix+"deep_sleep", 80)); err != nil {
		t.Fatalf("contributor metric rejected: %v", err)
	}
}

func TestProcessDedupesSameDay(t *testing.T) {
	proc := &countingProc{}
	met := &countingMetrics{}
	p := NewIngestPipeline(proc, met, WithDedupeWindow(time.Hour))

	r := record(0, models.MetricReadinessScore, 70)
	for i := 0; i < 3; i++ {
		if err := p.Process(context.Background(), r); err != nil {
			t.Fatalf("process: %v", err)
		}
	}
	if proc.count() != 1 {
		t.Fatalf("expected 1 downstream call, got %d", proc.count())
	}
	if met.errCount("pipeline_dedupe") != 2 {
		t.Fatalf("expected 2 dedupe drops, got %d", met.errCount("pipeline_dedupe"))
	}

	// a different day is not a duplicate
	if err := p.Process(context.Background(), record(1, models.MetricReadinessScore, 72)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("expected 2 downstream calls, got %d", proc.count())
	}
}

func TestProcessBuffersOnDownstreamError(t *testing.T) {
	proc := &countingProc{err: errors.New("clickhouse down")}
	met := &countingMetrics{}
	p := NewIngestPipeline(proc, met, WithBufferSize(4))

	if err := p.Process(context.Background(), record(0, models.MetricSteps, 9000)); err == nil {
		t.Fatalf("downstream error must surface")
	}
	if met.errCount("pipeline_process") != 1 {
		t.Fatalf("expected process error recorded")
	}

	// buffered record is flushed once downstream recovers
	proc.mu.Lock()
	proc.err = nil
	proc.mu.Unlock()
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for proc.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if proc.count() != 2 {
		t.Fatalf("buffered record not flushed, downstream calls=%d", proc.count())
	}
}

func TestTransformHook(t *testing.T) {
	proc := &countingProc{}
	met := &countingMetrics{}
	p := NewIngestPipeline(proc, met, WithTransform(func(r *models.DailyRecord) *models.DailyRecord {
		r.Set(models.MetricActiveCalories, 500)
		return r
	}))

	r := record(0, models.MetricSteps, 12000)
	if err := p.Process(context.Background(), r); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, ok := r.Metrics[models.MetricActiveCalories]; !ok {
		t.Fatalf("transform not applied")
	}
}
