package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	recordsStored *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stagesSkipped *prometheus.CounterVec
	anomalyCount  *prometheus.GaugeVec
	forecastMAE   *prometheus.GaugeVec
	forecastR2    *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		recordsStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitapull_records_stored_total",
				Help: "Total number of daily records written to a backend",
			},
			[]string{"backend"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitapull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		stagesSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitapull_stages_skipped_total",
				Help: "Analytics stages skipped per run, by stage",
			},
			[]string{"stage"},
		),
		anomalyCount: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitapull_anomalies_last_run",
				Help: "Anomaly flags produced by the most recent run",
			},
			[]string{"metric"},
		),
		forecastMAE: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitapull_forecast_mae",
				Help: "Held-out mean absolute error of the latest forecast model",
			},
			[]string{"target"},
		),
		forecastR2: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitapull_forecast_r2",
				Help: "Held-out R squared of the latest forecast model",
			},
			[]string{"target"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vitapull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRecordStored records a daily record written to a backend.
func (r *Recorder) RecordRecordStored(backend string) {
	r.recordsStored.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStageSkipped records an analytics stage that produced no output.
// The reason goes to logs; the label set stays low-cardinality.
func (r *Recorder) RecordStageSkipped(stage, reason string) {
	r.stagesSkipped.WithLabelValues(stage).Inc()
}

// RecordAnomalyCount records the flag count of the latest detection run.
func (r *Recorder) RecordAnomalyCount(metric string, n int) {
	r.anomalyCount.WithLabelValues(metric).Set(float64(n))
}

// RecordForecastScore records the latest model evaluation.
func (r *Recorder) RecordForecastScore(target string, mae, r2 float64) {
	r.forecastMAE.WithLabelValues(target).Set(mae)
	r.forecastR2.WithLabelValues(target).Set(r2)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
