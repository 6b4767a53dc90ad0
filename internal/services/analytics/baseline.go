package analytics

import (
	"VitaPull/internal/domain/models"
	domsvc "VitaPull/internal/domain/service"
)

// Estimator computes per-metric personal baselines over the full history.
type Estimator struct{}

func NewEstimator() *Estimator { return &Estimator{} }

// Estimate produces a Baseline for each requested metric that appears in at
// least one record. Metrics absent from every record are skipped, not
// zero-filled; an empty result map is therefore valid output.
func (e *Estimator) Estimate(records []models.DailyRecord, metrics []string) (map[string]models.Baseline, error) {
	out := make(map[string]models.Baseline, len(metrics))
	for _, metric := range metrics {
		vals := models.Series(records, metric).Values()
		if len(vals) == 0 {
			continue
		}
		out[metric] = models.Baseline{
			Metric: metric,
			Mean:   Mean(vals),
			Median: Median(vals),
			Std:    SampleStd(vals),
			Count:  len(vals),
		}
	}
	if len(out) == 0 {
		return nil, models.ErrMissingMetric
	}
	return out, nil
}

var _ domsvc.BaselineEstimator = (*Estimator)(nil)
