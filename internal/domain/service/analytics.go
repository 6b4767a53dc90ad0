package service

import (
	"VitaPull/internal/domain/models"
)

// BaselineEstimator computes per-metric historical summaries.
type BaselineEstimator interface {
	Estimate(records []models.DailyRecord, metrics []string) (map[string]models.Baseline, error)
}

// AnomalyDetector flags days whose metric value falls outside the accepted
// band around its baseline.
type AnomalyDetector interface {
	Detect(records []models.DailyRecord, metric string, base models.Baseline) ([]models.AnomalyFlag, error)
}

// FeatureSynthesizer turns the raw daily table into a supervised-learning
// feature table.
type FeatureSynthesizer interface {
	Synthesize(records []models.DailyRecord) (*models.FeatureTable, error)
}

// ForecastTrainer fits and evaluates the one-day-ahead forecast model on a
// feature table.
type ForecastTrainer interface {
	TrainEvaluate(table *models.FeatureTable) (*models.ForecastSummary, error)
}

// Regressor is the capability interface of the forecast model. Alternative
// regressors can be substituted without touching the pipeline.
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(x [][]float64) []float64
}
