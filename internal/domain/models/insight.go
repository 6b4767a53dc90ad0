package models

import "time"

// Baseline is the historical summary of one metric: mean, median and sample
// (n-1) standard deviation over every non-absent observation.
// Std is reported as 0 when Count < 2; Count lets consumers detect that the
// deviation is undefined rather than truly zero.
type Baseline struct {
	Metric string  `json:"metric"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Count  int     `json:"count"`
}

// AnomalyFlag marks one day whose metric value fell outside the accepted
// band. Low/High carry the band bounds so the flag is explainable on its own.
type AnomalyFlag struct {
	Day    time.Time `json:"day"`
	Metric string    `json:"metric"`
	Value  float64   `json:"value"`
	Low    float64   `json:"low"`
	High   float64   `json:"high"`
}

// PredictionPair is one held-out evaluation point of the forecast model.
type PredictionPair struct {
	Day       time.Time `json:"day"`
	Predicted float64   `json:"predicted"`
	Actual    float64   `json:"actual"`
}

// ForecastSummary reports the trained forecast model's held-out accuracy.
// The fitted model itself stays behind the service.Regressor interface and is
// not serialized.
type ForecastSummary struct {
	TargetMetric string           `json:"target_metric"`
	MAE          float64          `json:"mae"`
	R2           float64          `json:"r2"`
	TrainRows    int              `json:"train_rows"`
	TestRows     int              `json:"test_rows"`
	FeatureCount int              `json:"feature_count"`
	Predictions  []PredictionPair `json:"predictions"`
}

// Pipeline stage names used as keys of InsightReport.Skipped.
const (
	StageBaselines = "baselines"
	StageAnomalies = "anomalies"
	StageForecast  = "forecast"
)

// InsightReport is the consolidated per-run output. Each section is present
// only if its stage succeeded; Skipped maps stage name to the reason a stage
// produced no output. A report with every stage skipped is still a valid run.
type InsightReport struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Days        int                 `json:"days"`
	Baselines   map[string]Baseline `json:"baselines,omitempty"`
	Anomalies   []AnomalyFlag       `json:"anomalies,omitempty"`
	Forecast    *ForecastSummary    `json:"forecast,omitempty"`
	Skipped     map[string]string   `json:"skipped,omitempty"`
}
