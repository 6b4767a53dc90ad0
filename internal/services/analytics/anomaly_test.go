package analytics

import (
	"testing"

	"VitaPull/internal/domain/models"
)

func TestDetectFlagsSpike(t *testing.T) {
	vals := []float64{70, 72, 71, 69, 150, 70, 71, 69}
	recs := recordsWith(models.MetricReadinessScore, vals)
	base, err := NewEstimator().Estimate(recs, []string{models.MetricReadinessScore})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	flags, err := NewDetector(2).Detect(recs, models.MetricReadinessScore, base[models.MetricReadinessScore])
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(flags) != 1 {
		t.Fatalf("expected exactly the spike flagged, got %d flags", len(flags))
	}
	f := flags[0]
	if f.Value != 150 || !f.Day.Equal(day(4)) {
		t.Fatalf("unexpected flag %+v", f)
	}
	if f.Low >= f.High || f.Value <= f.High {
		t.Fatalf("band bounds inconsistent: %+v", f)
	}
}

func TestDetectConstantSeriesFlagsNothing(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70, 70, 70, 70, 70})
	base := models.Baseline{Metric: models.MetricReadinessScore, Mean: 70, Std: 0, Count: 5}
	flags, err := NewDetector(2).Detect(recs, models.MetricReadinessScore, base)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(flags) != 0 {
		t.Fatalf("zero deviation must flag nothing, got %d", len(flags))
	}
}

func TestDetectUndefinedDeviation(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70})
	base := models.Baseline{Metric: models.MetricReadinessScore, Mean: 70, Count: 1}
	flags, err := NewDetector(2).Detect(recs, models.MetricReadinessScore, base)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if flags != nil {
		t.Fatalf("expected no flags for single observation")
	}
}

func TestDetectSkipsGapDays(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70, 72, 71, 69, 150, 70})
	recs[2] = models.DailyRecord{Day: day(2)}
	base, err := NewEstimator().Estimate(recs, []string{models.MetricReadinessScore})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	flags, err := NewDetector(2).Detect(recs, models.MetricReadinessScore, base[models.MetricReadinessScore])
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for _, f := range flags {
		if f.Day.Equal(day(2)) {
			t.Fatalf("gap day must not be flagged")
		}
	}
}

func TestNewDetectorDefaultsSigma(t *testing.T) {
	d := NewDetector(0)
	if d.sigma != 2 {
		t.Fatalf("expected default sigma 2, got %v", d.sigma)
	}
}
