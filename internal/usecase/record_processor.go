package usecase

import (
	"context"
	"fmt"
	"time"

	"VitaPull/internal/domain/models"
	drepo "VitaPull/internal/domain/repository"
)

// RecordProcessor routes synced daily records to the configured backend:
// either straight into storage or onto the sync topic for the consumer to
// persist.
type RecordProcessor struct {
	pub     drepo.RecordPublisher
	store   drepo.RecordStore
	metrics drepo.Metrics
	backend string
}

func NewRecordProcessor(
	pub drepo.RecordPublisher,
	store drepo.RecordStore,
	metrics drepo.Metrics,
	backend string,
) *RecordProcessor {
	return &RecordProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single record to the configured backend.
func (p *RecordProcessor) Process(ctx context.Context, r *models.DailyRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishRecord(ctx, r)
	case "clickhouse":
		err = p.store.Upsert(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process record: %w", err)
	}

	p.metrics.RecordRecordStored(p.backend)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple records in one backend call.
func (p *RecordProcessor) ProcessBatch(ctx context.Context, rs []*models.DailyRecord) error {
	if len(rs) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishRecordBatch(ctx, rs)
	case "clickhouse":
		err = p.store.UpsertBatch(ctx, rs)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for range rs {
		p.metrics.RecordRecordStored(p.backend)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *RecordProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
