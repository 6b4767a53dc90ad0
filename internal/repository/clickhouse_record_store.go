package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"VitaPull/internal/domain/models"
	domrepo "VitaPull/internal/domain/repository"
	pkgch "VitaPull/pkg/clickhouse"
	applogger "VitaPull/pkg/logger"
)

// daily_metrics is stored one row per (day, metric); ReplacingMergeTree keyed
// on that pair keeps the newest synced_at, which makes re-syncing a day an
// upsert.
const recordTable = "vitapull.daily_metrics"

// SchemaStatements returns the idempotent DDL for the metrics store.
func SchemaStatements() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS vitapull`,
		`CREATE TABLE IF NOT EXISTS ` + recordTable + ` (
            day Date,
            metric String,
            value Float64,
            synced_at DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(synced_at)
        ORDER BY (day, metric)`,
	}
}

// CHRecordStore implements RecordStore backed by ClickHouse.
type CHRecordStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHRecordStore(ch *pkgch.Client) *CHRecordStore {
	return &CHRecordStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHRecordStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHRecordStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, SchemaStatements())
}

func (s *CHRecordStore) Upsert(ctx context.Context, r *models.DailyRecord) error {
	return s.UpsertBatch(ctx, []*models.DailyRecord{r})
}

func (s *CHRecordStore) UpsertBatch(ctx context.Context, rs []*models.DailyRecord) error {
	if len(rs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	values := make([]string, 0, len(rs)*8)
	args := make([]interface{}, 0, len(rs)*8*4)
	for _, r := range rs {
		if r == nil || r.Day.IsZero() {
			continue
		}
		for metric, v := range r.Metrics {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, models.DayKey(r.Day), metric, v, now)
		}
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (day, metric, value, synced_at) VALUES %s",
		recordTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse upsert error",
				applogger.Int("records", len(rs)),
				applogger.Error(err))
		}
		return fmt.Errorf("upsert records: %w", err)
	}
	return nil
}

func (s *CHRecordStore) GetRange(ctx context.Context, from, to time.Time) ([]models.DailyRecord, error) {
	const qtpl = `
        SELECT day, metric, value
        FROM %s FINAL
        WHERE day >= ? AND day <= ?
        ORDER BY day ASC, metric ASC
    `
	return s.queryRecords(ctx, fmt.Sprintf(qtpl, recordTable), models.DayKey(from), models.DayKey(to))
}

// GetLastNDays anchors the window at the newest stored day, not the wall
// clock, so a paused sync still yields a full analytics window.
func (s *CHRecordStore) GetLastNDays(ctx context.Context, n int) ([]models.DailyRecord, error) {
	if n <= 0 {
		return nil, fmt.Errorf("n must be positive")
	}
	const qtpl = `
        SELECT day, metric, value
        FROM %s FINAL
        WHERE day > (SELECT max(day) FROM %s) - ?
        ORDER BY day ASC, metric ASC
    `
	return s.queryRecords(ctx, fmt.Sprintf(qtpl, recordTable, recordTable), n)
}

func (s *CHRecordStore) queryRecords(ctx context.Context, q string, args ...interface{}) ([]models.DailyRecord, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query error", applogger.Error(err))
		}
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []models.DailyRecord
	for rows.Next() {
		var (
			day    time.Time
			metric string
			value  float64
		)
		if err := rows.Scan(&day, &metric, &value); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		day = models.DayKey(day)
		if len(out) == 0 || !out[len(out)-1].Day.Equal(day) {
			out = append(out, models.DailyRecord{Day: day})
		}
		out[len(out)-1].Set(metric, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse records loaded",
			applogger.Int("days", len(out)),
			applogger.Duration("duration_ms", time.Since(start)))
	}
	return out, nil
}

func (s *CHRecordStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHRecordStore) Close() error {
	return nil // pool is managed by pkg client
}

var _ domrepo.RecordStore = (*CHRecordStore)(nil)
