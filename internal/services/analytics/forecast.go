package analytics

import (
	"math"

	"VitaPull/internal/domain/models"
	domsvc "VitaPull/internal/domain/service"
)

// TrainerConfig tunes the forecast training and evaluation stage.
type TrainerConfig struct {
	TestFraction float64      `yaml:"test_fraction"` // held-out tail share, default 0.2
	Forest       ForestConfig `yaml:"forest"`
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{TestFraction: 0.2, Forest: DefaultForestConfig()}
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithModelFactory swaps the regressor constructed for each run. The default
// is the bagged tree ensemble.
func WithModelFactory(f func() domsvc.Regressor) TrainerOption {
	return func(t *Trainer) { t.newModel = f }
}

// Trainer fits a regressor on the chronological head of the feature table and
// scores it on the tail. Rows are never shuffled: evaluation always happens on
// days the model has not seen.
type Trainer struct {
	cfg      TrainerConfig
	newModel func() domsvc.Regressor
}

func NewTrainer(cfg TrainerConfig, opts ...TrainerOption) *Trainer {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	t := &Trainer{cfg: cfg}
	t.newModel = func() domsvc.Regressor { return NewForest(cfg.Forest) }
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TrainEvaluate standardizes features on training statistics only, fits a
// fresh model and reports held-out MAE and R². The test partition is
// ceil(fraction*n) rows; both partitions must be non-empty.
func (t *Trainer) TrainEvaluate(table *models.FeatureTable) (*models.ForecastSummary, error) {
	if table == nil || len(table.Rows) == 0 || len(table.Columns) == 0 {
		return nil, models.ErrInsufficientData
	}

	x, y, days := table.Matrix()
	n := len(y)
	testN := int(math.Ceil(t.cfg.TestFraction * float64(n)))
	trainN := n - testN
	if trainN < 1 || testN < 1 {
		return nil, models.ErrInsufficientData
	}

	sc := fitScaler(x[:trainN])
	xTrain := sc.transform(x[:trainN])
	xTest := sc.transform(x[trainN:])

	model := t.newModel()
	if err := model.Fit(xTrain, y[:trainN]); err != nil {
		return nil, err
	}
	preds := model.Predict(xTest)

	yTest := y[trainN:]
	pairs := make([]models.PredictionPair, testN)
	mae := 0.0
	for i := range yTest {
		mae += math.Abs(preds[i] - yTest[i])
		pairs[i] = models.PredictionPair{Day: days[trainN+i], Predicted: preds[i], Actual: yTest[i]}
	}
	mae /= float64(testN)

	return &models.ForecastSummary{
		TargetMetric: table.Target,
		MAE:          mae,
		R2:           rSquared(yTest, preds),
		TrainRows:    trainN,
		TestRows:     testN,
		FeatureCount: len(table.Columns),
		Predictions:  pairs,
	}, nil
}

// rSquared is the coefficient of determination against the held-out mean.
// A constant test target makes it degenerate: 1 when predictions are exact,
// 0 otherwise.
func rSquared(actual, predicted []float64) float64 {
	mean := Mean(actual)
	var ssRes, ssTot float64
	for i := range actual {
		d := actual[i] - predicted[i]
		ssRes += d * d
		m := actual[i] - mean
		ssTot += m * m
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// scaler centers and scales each column by training-partition statistics.
// Zero-variance columns pass through centered only.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(x [][]float64) *scaler {
	cols := len(x[0])
	n := float64(len(x))
	sc := &scaler{mean: make([]float64, cols), std: make([]float64, cols)}
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := range x {
			sum += x[i][j]
		}
		sc.mean[j] = sum / n
		sq := 0.0
		for i := range x {
			d := x[i][j] - sc.mean[j]
			sq += d * d
		}
		sc.std[j] = math.Sqrt(sq / n)
		if sc.std[j] == 0 {
			sc.std[j] = 1
		}
	}
	return sc
}

func (s *scaler) transform(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i := range x {
		row := make([]float64, len(x[i]))
		for j := range x[i] {
			row[j] = (x[i][j] - s.mean[j]) / s.std[j]
		}
		out[i] = row
	}
	return out
}

var _ domsvc.ForecastTrainer = (*Trainer)(nil)
