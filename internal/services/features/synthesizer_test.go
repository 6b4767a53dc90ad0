package features

import (
	"errors"
	"testing"
	"time"

	"VitaPull/internal/domain/models"
)

func day(i int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func constantRecords(n int, v float64) []models.DailyRecord {
	out := make([]models.DailyRecord, n)
	for i := range out {
		out[i] = models.DailyRecord{Day: day(i)}
		out[i].Set(models.MetricReadinessScore, v)
	}
	return out
}

func TestSynthesizeConstantSeries(t *testing.T) {
	tbl, err := NewSynthesizer(DefaultConfig()).Synthesize(constantRecords(10, 70))
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	// final raw row has no next-day target and is dropped
	if len(tbl.Rows) != 9 {
		t.Fatalf("expected 9 rows, got %d", len(tbl.Rows))
	}
	// sleep and activity never appear, so only readiness derivatives survive
	want := []string{
		LagColumn(models.MetricReadinessScore, 1),
		LagColumn(models.MetricReadinessScore, 2),
		LagColumn(models.MetricReadinessScore, 3),
		LagColumn(models.MetricReadinessScore, 7),
		RollColumn(models.MetricReadinessScore, 3),
		RollColumn(models.MetricReadinessScore, 7),
	}
	if len(tbl.Columns) != len(want) {
		t.Fatalf("columns %v want %v", tbl.Columns, want)
	}
	for i, col := range want {
		if tbl.Columns[i] != col {
			t.Fatalf("columns %v want %v", tbl.Columns, want)
		}
	}
	// constant input means every feature cell, filled or not, is 70
	for _, row := range tbl.Rows {
		for _, col := range tbl.Columns {
			v, ok := row.Value(col)
			if !ok {
				t.Fatalf("cell %s missing on %v after fill", col, row.Day)
			}
			if v != 70 {
				t.Fatalf("cell %s = %v, want 70", col, v)
			}
		}
		if row.Target != 70 {
			t.Fatalf("target %v want 70", row.Target)
		}
	}
}

func TestSynthesizeLagAndRollValues(t *testing.T) {
	vals := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90}
	recs := make([]models.DailyRecord, len(vals))
	for i, v := range vals {
		recs[i] = models.DailyRecord{Day: day(i)}
		recs[i].Set(models.MetricReadinessScore, v)
	}
	tbl, err := NewSynthesizer(DefaultConfig()).Synthesize(recs)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	// row index 7 (value 80): lag1=70, lag7=10, roll3=mean(60,70,80)=70
	row := tbl.Rows[7]
	if v, _ := row.Value(LagColumn(models.MetricReadinessScore, 1)); v != 70 {
		t.Fatalf("lag1 = %v, want 70", v)
	}
	if v, _ := row.Value(LagColumn(models.MetricReadinessScore, 7)); v != 10 {
		t.Fatalf("lag7 = %v, want 10", v)
	}
	if v, _ := row.Value(RollColumn(models.MetricReadinessScore, 3)); v != 70 {
		t.Fatalf("roll3 = %v, want 70", v)
	}
	if row.Target != 90 {
		t.Fatalf("target = %v, want next day's 90", row.Target)
	}
}

func TestSynthesizeMedianFillsEarlyGaps(t *testing.T) {
	recs := constantRecords(6, 70)
	tbl, err := NewSynthesizer(DefaultConfig()).Synthesize(recs)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	// lag3 is undefined for the first three rows and median-filled with the
	// only observed value
	col := LagColumn(models.MetricReadinessScore, 3)
	for i := 0; i < 3; i++ {
		v, ok := tbl.Rows[i].Value(col)
		if !ok || v != 70 {
			t.Fatalf("row %d %s = %v,%v, want filled 70", i, col, v, ok)
		}
	}
}

func TestSynthesizeDropsAllAbsentColumns(t *testing.T) {
	// 4 rows: lag7 and roll7 never computable, so those columns must vanish
	tbl, err := NewSynthesizer(DefaultConfig()).Synthesize(constantRecords(4, 70))
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	for _, col := range tbl.Columns {
		if col == LagColumn(models.MetricReadinessScore, 7) || col == RollColumn(models.MetricReadinessScore, 7) {
			t.Fatalf("column %s has no observations and must be dropped", col)
		}
	}
}

func TestSynthesizeKeepsOtherMetricsAsColumns(t *testing.T) {
	recs := constantRecords(5, 70)
	for i := range recs {
		recs[i].Set(models.MetricSleepScore, 80+float64(i))
	}
	recs[2].Metrics[models.MetricSteps] = 9000 // partial metric, fill elsewhere
	tbl, err := NewSynthesizer(DefaultConfig()).Synthesize(recs)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	hasSleep, hasSteps, hasTargetRaw := false, false, false
	for _, col := range tbl.Columns {
		switch col {
		case models.MetricSleepScore:
			hasSleep = true
		case models.MetricSteps:
			hasSteps = true
		case models.MetricReadinessScore:
			hasTargetRaw = true
		}
	}
	if !hasSleep || !hasSteps {
		t.Fatalf("observed metrics missing from columns %v", tbl.Columns)
	}
	if hasTargetRaw {
		t.Fatalf("raw target column must not be a feature")
	}
	for i := range tbl.Rows {
		v, ok := tbl.Rows[i].Value(models.MetricSteps)
		if !ok {
			t.Fatalf("steps not filled on row %d", i)
		}
		if v != 9000 {
			t.Fatalf("steps fill = %v, want the single observed median 9000", v)
		}
	}
}

func TestSynthesizeNoUsableRows(t *testing.T) {
	if _, err := NewSynthesizer(DefaultConfig()).Synthesize(nil); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty input, got %v", err)
	}
	// target metric never recorded: no row has supervision
	recs := make([]models.DailyRecord, 3)
	for i := range recs {
		recs[i] = models.DailyRecord{Day: day(i)}
		recs[i].Set(models.MetricSteps, 1000)
	}
	if _, err := NewSynthesizer(DefaultConfig()).Synthesize(recs); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData without targets, got %v", err)
	}
}
