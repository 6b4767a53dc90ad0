package usecase

import (
	"context"
	"encoding/json"
	"time"

	"VitaPull/internal/domain/models"
	domrepo "VitaPull/internal/domain/repository"
	pkgkafka "VitaPull/pkg/kafka"
)

// KafkaSyncHandler consumes synced daily records off the sync topic and
// upserts them into storage.
type KafkaSyncHandler struct {
	topic   string
	store   domrepo.RecordStore
	metrics domrepo.Metrics
}

func NewKafkaSyncHandler(topic string, store domrepo.RecordStore, metrics domrepo.Metrics) *KafkaSyncHandler {
	return &KafkaSyncHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSyncHandler) Topic() string { return h.topic }

// incoming message schema: {day, metrics, synced_at}
func (h *KafkaSyncHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Day      string             `json:"day"`
		Metrics  map[string]float64 `json:"metrics"`
		SyncedAt int64              `json:"synced_at"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	day, err := time.ParseInLocation("2006-01-02", m.Day, time.UTC)
	if err != nil {
		h.metrics.RecordError("consumer_bad_day")
		return err
	}
	if m.SyncedAt > 0 {
		// E2E latency from sync time to storage write (approx)
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.SyncedAt, 0)).Seconds())
	}

	start := time.Now()
	err = h.store.Upsert(ctx, &models.DailyRecord{Day: day, Metrics: m.Metrics})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordRecordStored("clickhouse")
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSyncHandler)(nil)
