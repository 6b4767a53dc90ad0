package analytics

import (
	"VitaPull/internal/domain/models"
	domsvc "VitaPull/internal/domain/service"
)

// Detector flags statistically unusual days for one metric: any value more
// than Sigma standard deviations from the baseline mean in either direction.
type Detector struct {
	sigma float64
}

// NewDetector creates a Detector with the given band width in standard
// deviations. Non-positive values fall back to the conventional 2.
func NewDetector(sigma float64) *Detector {
	if sigma <= 0 {
		sigma = 2
	}
	return &Detector{sigma: sigma}
}

// Detect returns flags ordered by day. Days where the metric was not measured
// cannot be anomalous and are skipped. With fewer than 2 observations the
// deviation is undefined and the result is empty rather than an error; a zero
// deviation likewise flags nothing since the comparison is strict.
func (d *Detector) Detect(records []models.DailyRecord, metric string, base models.Baseline) ([]models.AnomalyFlag, error) {
	if base.Count < 2 {
		return nil, nil
	}
	low := base.Mean - d.sigma*base.Std
	high := base.Mean + d.sigma*base.Std

	var flags []models.AnomalyFlag
	for i := range records {
		v, ok := records[i].Value(metric)
		if !ok {
			continue
		}
		if v < low || v > high {
			flags = append(flags, models.AnomalyFlag{
				Day:    records[i].Day,
				Metric: metric,
				Value:  v,
				Low:    low,
				High:   high,
			})
		}
	}
	return flags, nil
}

var _ domsvc.AnomalyDetector = (*Detector)(nil)
