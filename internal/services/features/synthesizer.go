package features

import (
	"fmt"
	"sort"

	"VitaPull/internal/domain/models"
	domsvc "VitaPull/internal/domain/service"
)

// Config controls feature engineering for the forecast table.
// Lags and windows are row positions in the sorted sequence, not calendar
// days: gaps in the date history are not backfilled.
type Config struct {
	Sources []string `yaml:"sources"`
	Lags    []int    `yaml:"lags"`
	Windows []int    `yaml:"windows"`
	Target  string   `yaml:"target"`
}

// DefaultConfig mirrors the conventional setup: score metrics lagged by
// {1,2,3,7} rows with {3,7}-row trailing means, forecasting readiness.
func DefaultConfig() Config {
	return Config{
		Sources: models.ScoreMetrics(),
		Lags:    []int{1, 2, 3, 7},
		Windows: []int{3, 7},
		Target:  models.MetricReadinessScore,
	}
}

// LagColumn names the lag-k feature of a metric.
func LagColumn(metric string, k int) string { return fmt.Sprintf("%s_lag%d", metric, k) }

// RollColumn names the trailing w-row mean feature of a metric.
func RollColumn(metric string, w int) string { return fmt.Sprintf("%s_roll%d", metric, w) }

// Synthesizer builds the supervised-learning table from raw daily records.
type Synthesizer struct {
	cfg Config
}

func NewSynthesizer(cfg Config) *Synthesizer {
	if len(cfg.Sources) == 0 {
		cfg.Sources = models.ScoreMetrics()
	}
	if len(cfg.Lags) == 0 {
		cfg.Lags = []int{1, 2, 3, 7}
	}
	if len(cfg.Windows) == 0 {
		cfg.Windows = []int{3, 7}
	}
	if cfg.Target == "" {
		cfg.Target = models.MetricReadinessScore
	}
	return &Synthesizer{cfg: cfg}
}

// Synthesize produces one row per input day with lag and trailing-mean
// features plus next-day target, drops rows without a target (always the
// final row), then median-fills remaining feature gaps.
//
// The fill median is computed once over the whole retained table, including
// rows that later become the evaluation partition. That is inherited
// behavior, kept for parity with the established results; it does leak
// evaluation information into training-time imputation.
//
// Records must be sorted ascending by day with no duplicate days.
func (s *Synthesizer) Synthesize(records []models.DailyRecord) (*models.FeatureTable, error) {
	n := len(records)
	if n == 0 {
		return nil, models.ErrInsufficientData
	}

	// Sources only produce features when the metric exists somewhere in the
	// input history.
	present := make(map[string]bool)
	for i := range records {
		for name := range records[i].Metrics {
			present[name] = true
		}
	}

	rows := make([]models.FeatureRow, 0, n)
	for i := range records {
		row := models.FeatureRow{Day: records[i].Day, Values: make(map[string]float64)}
		for name, v := range records[i].Metrics {
			row.Values[name] = v
		}
		for _, src := range s.cfg.Sources {
			if !present[src] {
				continue
			}
			for _, k := range s.cfg.Lags {
				if i-k < 0 {
					continue
				}
				if v, ok := records[i-k].Value(src); ok {
					row.Values[LagColumn(src, k)] = v
				}
			}
			for _, w := range s.cfg.Windows {
				if v, ok := trailingMean(records, i, w, src); ok {
					row.Values[RollColumn(src, w)] = v
				}
			}
		}
		if i+1 < n {
			if v, ok := records[i+1].Value(s.cfg.Target); ok {
				row.Target = v
				row.TargetOK = true
			}
		}
		rows = append(rows, row)
	}

	// Rows without supervision signal cannot be trained or evaluated on.
	retained := rows[:0]
	for _, row := range rows {
		if row.TargetOK {
			retained = append(retained, row)
		}
	}
	if len(retained) == 0 {
		return nil, models.ErrInsufficientData
	}

	cols := s.columns(present)

	// Drop columns absent in every retained row: no median exists for them.
	kept := cols[:0]
	for _, col := range cols {
		found := false
		for i := range retained {
			if _, ok := retained[i].Value(col); ok {
				found = true
				break
			}
		}
		if found {
			kept = append(kept, col)
		}
	}
	if len(kept) == 0 {
		return nil, models.ErrInsufficientData
	}

	fillMedians(retained, kept)

	return &models.FeatureTable{Columns: kept, Rows: retained, Target: s.cfg.Target}, nil
}

// columns assembles the ordered feature column list: original metrics first
// (sorted, minus the raw target source which would leak trivially), then lag
// and rolling columns in configuration order.
func (s *Synthesizer) columns(present map[string]bool) []string {
	orig := make([]string, 0, len(present))
	for name := range present {
		if name == s.cfg.Target {
			continue
		}
		orig = append(orig, name)
	}
	sort.Strings(orig)

	cols := orig
	for _, src := range s.cfg.Sources {
		if !present[src] {
			continue
		}
		for _, k := range s.cfg.Lags {
			cols = append(cols, LagColumn(src, k))
		}
		for _, w := range s.cfg.Windows {
			cols = append(cols, RollColumn(src, w))
		}
	}
	return cols
}

// trailingMean averages metric over rows [i-w+1, i]. The full window must
// exist and every value in it must be present.
func trailingMean(records []models.DailyRecord, i, w int, metric string) (float64, bool) {
	if w <= 0 || i-w+1 < 0 {
		return 0, false
	}
	sum := 0.0
	for j := i - w + 1; j <= i; j++ {
		v, ok := records[j].Value(metric)
		if !ok {
			return 0, false
		}
		sum += v
	}
	return sum / float64(w), true
}

// fillMedians replaces absent cells with the column median over the retained
// set. Columns reaching here have at least one present value.
func fillMedians(rows []models.FeatureRow, cols []string) {
	for _, col := range cols {
		var vals []float64
		missing := false
		for i := range rows {
			if v, ok := rows[i].Value(col); ok {
				vals = append(vals, v)
			} else {
				missing = true
			}
		}
		if !missing {
			continue
		}
		med := median(vals)
		for i := range rows {
			if _, ok := rows[i].Value(col); !ok {
				rows[i].Values[col] = med
			}
		}
	}
}

func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	tmp := make([]float64, n)
	copy(tmp, xs)
	sort.Float64s(tmp)
	if n%2 == 1 {
		return tmp[n/2]
	}
	return (tmp[n/2-1] + tmp[n/2]) / 2
}

var _ domsvc.FeatureSynthesizer = (*Synthesizer)(nil)
