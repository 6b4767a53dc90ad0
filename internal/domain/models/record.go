package models

import (
	"sort"
	"strings"
	"time"
)

// Known daily metric names. The schema is closed except for contributor
// sub-metrics, which extend it through the ContributorPrefix convention.
const (
	MetricReadinessScore = "readiness_score"
	MetricSleepScore     = "sleep_score"
	MetricActivityScore  = "activity_score"
	MetricSteps          = "steps"
	MetricTotalCalories  = "total_calories"
	MetricActiveCalories = "active_calories"
	MetricTempDeviation  = "temperature_deviation"
	MetricTempTrend      = "temperature_trend_deviation"

	// ContributorPrefix marks vendor contributor sub-scores
	// (e.g. contributor_deep_sleep, contributor_hrv_balance).
	ContributorPrefix = "contributor_"
)

// ScoreMetrics are the top-level daily scores used as default feature sources.
func ScoreMetrics() []string {
	return []string{MetricReadinessScore, MetricSleepScore, MetricActivityScore}
}

// IsKnownMetric reports whether name is part of the declared schema.
func IsKnownMetric(name string) bool {
	switch name {
	case MetricReadinessScore, MetricSleepScore, MetricActivityScore,
		MetricSteps, MetricTotalCalories, MetricActiveCalories,
		MetricTempDeviation, MetricTempTrend:
		return true
	}
	return strings.HasPrefix(name, ContributorPrefix)
}

// DailyRecord is one calendar day's set of named metric values.
// A key missing from Metrics means the metric was not measured that day;
// values are never zero-filled to stand in for absence.
type DailyRecord struct {
	Day     time.Time          `json:"day"`
	Metrics map[string]float64 `json:"metrics"`
}

// Value returns the metric value and whether it was measured.
func (r *DailyRecord) Value(metric string) (float64, bool) {
	v, ok := r.Metrics[metric]
	return v, ok
}

// Set records a metric value, allocating the map lazily.
func (r *DailyRecord) Set(metric string, v float64) {
	if r.Metrics == nil {
		r.Metrics = make(map[string]float64)
	}
	r.Metrics[metric] = v
}

// MetricPoint is one (day, value) observation of a metric.
type MetricPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
}

// MetricSeries is the ordered non-absent history of one metric.
// Days ascend; gaps are simply not present.
type MetricSeries struct {
	Metric string        `json:"metric"`
	Points []MetricPoint `json:"points"`
}

// Values returns the raw value slice in day order.
func (s MetricSeries) Values() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		out = append(out, p.Value)
	}
	return out
}

// Series extracts the ordered series of one metric from records.
// The records slice must already be sorted ascending by day.
func Series(records []DailyRecord, metric string) MetricSeries {
	s := MetricSeries{Metric: metric}
	for i := range records {
		if v, ok := records[i].Value(metric); ok {
			s.Points = append(s.Points, MetricPoint{Day: records[i].Day, Value: v})
		}
	}
	return s
}

// SortRecords orders records ascending by day in place.
func SortRecords(records []DailyRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Day.Before(records[j].Day)
	})
}

// DayKey normalizes a timestamp to its UTC calendar date.
func DayKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
