package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"VitaPull/internal/domain/models"
)

func day(i int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func recordsWith(metric string, vals []float64) []models.DailyRecord {
	out := make([]models.DailyRecord, len(vals))
	for i, v := range vals {
		out[i] = models.DailyRecord{Day: day(i)}
		out[i].Set(metric, v)
	}
	return out
}

func TestEstimateConstantSeries(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70, 70, 70, 70, 70, 70, 70, 70, 70, 70})
	got, err := NewEstimator().Estimate(recs, []string{models.MetricReadinessScore})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, ok := got[models.MetricReadinessScore]
	if !ok {
		t.Fatalf("baseline missing")
	}
	if b.Mean != 70 || b.Median != 70 || b.Std != 0 || b.Count != 10 {
		t.Fatalf("unexpected baseline %+v", b)
	}
}

func TestEstimateSampleStd(t *testing.T) {
	recs := recordsWith("steps", []float64{2, 4, 4, 4, 5, 5, 7, 9})
	got, err := NewEstimator().Estimate(recs, []string{"steps"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := math.Sqrt(32.0 / 7.0)
	if b := got["steps"]; math.Abs(b.Std-want) > 1e-9 {
		t.Fatalf("std %v want %v", b.Std, want)
	}
}

func TestEstimateSkipsAbsentMetric(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70, 71})
	got, err := NewEstimator().Estimate(recs, []string{models.MetricReadinessScore, models.MetricSleepScore})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got[models.MetricSleepScore]; ok {
		t.Fatalf("absent metric should not produce a baseline")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 baseline, got %d", len(got))
	}
}

func TestEstimateAllAbsent(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70, 71})
	_, err := NewEstimator().Estimate(recs, []string{models.MetricSleepScore})
	if !errors.Is(err, models.ErrMissingMetric) {
		t.Fatalf("expected ErrMissingMetric, got %v", err)
	}
}

func TestEstimateCountsOnlyMeasuredDays(t *testing.T) {
	recs := recordsWith(models.MetricReadinessScore, []float64{70, 80, 90})
	recs[1] = models.DailyRecord{Day: day(1)} // gap day
	got, err := NewEstimator().Estimate(recs, []string{models.MetricReadinessScore})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := got[models.MetricReadinessScore]
	if b.Count != 2 || b.Mean != 80 {
		t.Fatalf("unexpected baseline %+v", b)
	}
}
