package analytics

import (
	"errors"
	"math"
	"testing"

	"VitaPull/internal/domain/models"
	domsvc "VitaPull/internal/domain/service"
)

// constantModel predicts a fixed value, making accuracy arithmetic exact.
type constantModel struct{ v float64 }

func (m *constantModel) Fit(x [][]float64, y []float64) error { return nil }
func (m *constantModel) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = m.v
	}
	return out
}

func tableOf(targets []float64) *models.FeatureTable {
	tbl := &models.FeatureTable{Columns: []string{"sleep_score"}, Target: models.MetricReadinessScore}
	for i, y := range targets {
		tbl.Rows = append(tbl.Rows, models.FeatureRow{
			Day:      day(i),
			Values:   map[string]float64{"sleep_score": float64(i)},
			Target:   y,
			TargetOK: true,
		})
	}
	return tbl
}

func TestTrainEvaluateSplitSizes(t *testing.T) {
	tbl := tableOf([]float64{70, 71, 72, 73, 74, 75, 76, 77, 78, 79})
	tr := NewTrainer(DefaultTrainerConfig(), WithModelFactory(func() domsvc.Regressor {
		return &constantModel{v: 70}
	}))
	sum, err := tr.TrainEvaluate(tbl)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if sum.TrainRows != 8 || sum.TestRows != 2 {
		t.Fatalf("unexpected split %d/%d", sum.TrainRows, sum.TestRows)
	}
	if sum.FeatureCount != 1 || sum.TargetMetric != models.MetricReadinessScore {
		t.Fatalf("unexpected summary %+v", sum)
	}
	// held-out tail is 78, 79; constant 70 gives MAE 8.5
	if math.Abs(sum.MAE-8.5) > 1e-9 {
		t.Fatalf("MAE %v want 8.5", sum.MAE)
	}
	if len(sum.Predictions) != 2 || !sum.Predictions[0].Day.Equal(day(8)) {
		t.Fatalf("unexpected predictions %+v", sum.Predictions)
	}
}

func TestTrainEvaluateHoldsOutChronologicalTail(t *testing.T) {
	tbl := tableOf([]float64{1, 2, 3, 4, 5})
	tr := NewTrainer(DefaultTrainerConfig(), WithModelFactory(func() domsvc.Regressor {
		return &constantModel{v: 0}
	}))
	sum, err := tr.TrainEvaluate(tbl)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if sum.TestRows != 1 || sum.Predictions[0].Actual != 5 {
		t.Fatalf("tail row must be held out, got %+v", sum.Predictions)
	}
}

func TestTrainEvaluateInsufficientRows(t *testing.T) {
	if _, err := NewTrainer(DefaultTrainerConfig()).TrainEvaluate(tableOf([]float64{70})); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := NewTrainer(DefaultTrainerConfig()).TrainEvaluate(&models.FeatureTable{}); !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for empty table, got %v", err)
	}
}

func TestTrainEvaluateEndToEndForest(t *testing.T) {
	// target follows the single feature closely, the ensemble should beat
	// a naive constant by a wide margin
	var targets []float64
	for i := 0; i < 40; i++ {
		targets = append(targets, 60+float64(i%5))
	}
	tbl := &models.FeatureTable{Columns: []string{"sleep_score"}, Target: models.MetricReadinessScore}
	for i, y := range targets {
		tbl.Rows = append(tbl.Rows, models.FeatureRow{
			Day:      day(i),
			Values:   map[string]float64{"sleep_score": float64(i % 5)},
			Target:   y,
			TargetOK: true,
		})
	}
	cfg := DefaultTrainerConfig()
	cfg.Forest.Trees = 25
	sum, err := NewTrainer(cfg).TrainEvaluate(tbl)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if sum.MAE > 1.0 {
		t.Fatalf("MAE %v unexpectedly high for learnable pattern", sum.MAE)
	}
	if sum.R2 < 0.5 {
		t.Fatalf("R2 %v unexpectedly low", sum.R2)
	}
}

func TestRSquared(t *testing.T) {
	if got := rSquared([]float64{1, 2, 3}, []float64{1, 2, 3}); got != 1 {
		t.Fatalf("perfect fit must score 1, got %v", got)
	}
	if got := rSquared([]float64{5, 5}, []float64{5, 5}); got != 1 {
		t.Fatalf("exact constant fit must score 1, got %v", got)
	}
	if got := rSquared([]float64{5, 5}, []float64{4, 6}); got != 0 {
		t.Fatalf("constant actuals with error must score 0, got %v", got)
	}
	// predicting the mean scores exactly 0
	if got := rSquared([]float64{1, 3}, []float64{2, 2}); got != 0 {
		t.Fatalf("mean prediction must score 0, got %v", got)
	}
}

func TestScalerZeroVariancePassthrough(t *testing.T) {
	sc := fitScaler([][]float64{{5, 1}, {5, 3}})
	out := sc.transform([][]float64{{5, 2}})
	if out[0][0] != 0 {
		t.Fatalf("constant column must center to 0, got %v", out[0][0])
	}
	if out[0][1] != 0 {
		t.Fatalf("mean value must standardize to 0, got %v", out[0][1])
	}
}
