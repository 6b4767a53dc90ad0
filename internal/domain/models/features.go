package models

import "time"

// FeatureRow is one supervised-learning row: the engineered feature values
// for a day plus the forecast target observed one row later. A column name
// missing from Values means the feature is absent for that day (before any
// imputation). TargetOK is false for the final row of the raw sequence, which
// has no supervision signal.
type FeatureRow struct {
	Day      time.Time
	Values   map[string]float64
	Target   float64
	TargetOK bool
}

// Value returns the feature value and whether it is present.
func (r *FeatureRow) Value(col string) (float64, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// FeatureTable is the Feature Synthesizer output: an ordered column list and
// one row per retained day, rows ascending by day. It is rebuilt from scratch
// on every pipeline run and never persisted.
type FeatureTable struct {
	Columns []string
	Rows    []FeatureRow
	Target  string
}

// Matrix materializes the table into a dense float matrix in column order,
// plus the target vector and the row days. Every cell must be present by the
// time this is called (after median fill).
func (t *FeatureTable) Matrix() (x [][]float64, y []float64, days []time.Time) {
	x = make([][]float64, len(t.Rows))
	y = make([]float64, len(t.Rows))
	days = make([]time.Time, len(t.Rows))
	for i := range t.Rows {
		row := make([]float64, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = t.Rows[i].Values[col]
		}
		x[i] = row
		y[i] = t.Rows[i].Target
		days[i] = t.Rows[i].Day
	}
	return x, y, days
}
