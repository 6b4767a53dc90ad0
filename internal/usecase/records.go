package usecase

import (
	"context"
	"fmt"
	"time"

	"VitaPull/internal/domain/models"
	domrepo "VitaPull/internal/domain/repository"
)

// RecordsUseCase provides business logic for reading back raw daily records.
type RecordsUseCase struct {
	store domrepo.RecordStore
}

func NewRecordsUseCase(store domrepo.RecordStore) *RecordsUseCase {
	return &RecordsUseCase{store: store}
}

type GetRecordsParams struct {
	From  time.Time
	To    time.Time
	Limit int
}

type GetRecordsResult struct {
	From    time.Time            `json:"from"`
	To      time.Time            `json:"to"`
	Count   int                  `json:"count"`
	Records []models.DailyRecord `json:"records"`
}

func (uc *RecordsUseCase) GetRecords(ctx context.Context, p GetRecordsParams) (*GetRecordsResult, error) {
	if p.To.IsZero() {
		p.To = models.DayKey(time.Now())
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, 0, -365)
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 365
	}
	if p.Limit > 3650 {
		p.Limit = 3650
	}

	records, err := uc.store.GetRange(ctx, models.DayKey(p.From), models.DayKey(p.To))
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	if len(records) > p.Limit {
		records = records[len(records)-p.Limit:]
	}

	return &GetRecordsResult{
		From:    p.From,
		To:      p.To,
		Count:   len(records),
		Records: records,
	}, nil
}
