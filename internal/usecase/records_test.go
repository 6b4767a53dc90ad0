package usecase

import (
	"context"
	"testing"
	"time"
)

func TestGetRecordsDefaultsAndLimit(t *testing.T) {
	store := &fakeStore{records: healthyHistory(10)}
	uc := NewRecordsUseCase(store)

	res, err := uc.GetRecords(context.Background(), GetRecordsParams{})
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if res.Count != 10 || len(res.Records) != 10 {
		t.Fatalf("count = %d, records = %d", res.Count, len(res.Records))
	}
	if res.From.After(res.To) {
		t.Fatalf("default range inverted: %v .. %v", res.From, res.To)
	}

	// limit keeps the most recent tail
	res, err = uc.GetRecords(context.Background(), GetRecordsParams{Limit: 3})
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("count = %d, want 3", res.Count)
	}
	if !res.Records[len(res.Records)-1].Day.Equal(day(9)) {
		t.Fatalf("limit must keep the newest records, last day %v", res.Records[len(res.Records)-1].Day)
	}
}

func TestGetRecordsInvertedRange(t *testing.T) {
	uc := NewRecordsUseCase(&fakeStore{})
	_, err := uc.GetRecords(context.Background(), GetRecordsParams{
		From: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatalf("expected error for from > to")
	}
}
