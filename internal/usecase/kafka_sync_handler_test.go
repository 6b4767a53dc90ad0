package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"VitaPull/internal/domain/models"
)

type captureStore struct {
	fakeStore
	upserts []*models.DailyRecord
	upErr   error
}

func (s *captureStore) Upsert(ctx context.Context, r *models.DailyRecord) error {
	s.upserts = append(s.upserts, r)
	return s.upErr
}

type stubMetrics struct {
	errors []string
	stored int
}

func (m *stubMetrics) RecordRecordStored(string) { m.stored++ }
func (m *stubMetrics) RecordError(kind string) { m.errors = append(m.errors, kind) }
func (m *stubMetrics) RecordStageSkipped(string, string) {}
func (m *stubMetrics) RecordAnomalyCount(string, int) {}
func (m *stubMetrics) RecordForecastScore(string, float64, float64) {}
func (m *stubMetrics) RecordLatency(string, float64) {}

func TestKafkaSyncHandlerStoresRecord(t *testing.T) {
	store := &captureStore{}
	met := &stubMetrics{}
	h := NewKafkaSyncHandler("daily.synced", store, met)

	msg := []byte(`{"day":"2025-06-03","metrics":{"readiness_score":74,"steps":9100},"synced_at":1748908800}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(store.upserts))
	}
	rec := store.upserts[0]
	want := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	if !rec.Day.Equal(want) {
		t.Fatalf("day = %v, want %v", rec.Day, want)
	}
	if rec.Metrics[models.MetricReadinessScore] != 74 || rec.Metrics[models.MetricSteps] != 9100 {
		t.Fatalf("metrics = %v", rec.Metrics)
	}
	if met.stored != 1 {
		t.Fatalf("stored counter = %d", met.stored)
	}
}

func TestKafkaSyncHandlerRejectsBadPayload(t *testing.T) {
	store := &captureStore{}
	met := &stubMetrics{}
	h := NewKafkaSyncHandler("daily.synced", store, met)

	cases := [][]byte{
		[]byte(`{`),
		[]byte(`{"day":"03-06-2025","metrics":{"steps":1}}`),
	}
	for i, msg := range cases {
		if err := h.Handle(context.Background(), msg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if len(store.upserts) != 0 {
		t.Fatalf("bad payloads must not be stored")
	}
}

func TestKafkaSyncHandlerStoreFailure(t *testing.T) {
	store := &captureStore{upErr: errors.New("insert failed")}
	met := &stubMetrics{}
	h := NewKafkaSyncHandler("daily.synced", store, met)

	msg := []byte(`{"day":"2025-06-03","metrics":{"steps":100}}`)
	if err := h.Handle(context.Background(), msg); err == nil {
		t.Fatalf("store failure must surface for retry")
	}
	if len(met.errors) == 0 || met.errors[len(met.errors)-1] != "consumer_store" {
		t.Fatalf("expected consumer_store error, got %v", met.errors)
	}
}
