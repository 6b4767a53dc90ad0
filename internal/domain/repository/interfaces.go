package repository

import (
	"context"
	"time"

	"VitaPull/internal/domain/models"
)

// RecordStore persists and reads back the date-keyed daily metric table.
// Reads always return records sorted ascending by day, one record per day.
type RecordStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Upsert(ctx context.Context, r *models.DailyRecord) error
	UpsertBatch(ctx context.Context, rs []*models.DailyRecord) error
	GetRange(ctx context.Context, from, to time.Time) ([]models.DailyRecord, error)
	GetLastNDays(ctx context.Context, n int) ([]models.DailyRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// VendorSource pulls daily summaries from the wearable vendor API.
type VendorSource interface {
	FetchRange(ctx context.Context, from, to time.Time) ([]models.DailyRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// RecordPublisher emits synced daily records to the ingest topic.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, r *models.DailyRecord) error
	PublishRecordBatch(ctx context.Context, rs []*models.DailyRecord) error
	Close() error
}

// AlertPublisher emits anomaly alerts for downstream notification consumers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, f *models.AnomalyFlag) error
	PublishAlertBatch(ctx context.Context, fs []models.AnomalyFlag) error
	Close() error
}

// Metrics records operational telemetry for ingest and analytics runs.
type Metrics interface {
	RecordRecordStored(source string)
	RecordError(kind string)
	RecordStageSkipped(stage, reason string)
	RecordAnomalyCount(metric string, n int)
	RecordForecastScore(metric string, mae, r2 float64)
	RecordLatency(op string, seconds float64)
}
