package usecase

import (
	"context"
	"fmt"
	"time"

	"VitaPull/internal/domain/models"
	drepo "VitaPull/internal/domain/repository"
	mid "VitaPull/internal/middleware"
	"VitaPull/pkg/logger"
	"VitaPull/pkg/queue"
)

// SyncCollector periodically pulls daily summaries from the vendor and feeds
// them through the ingest pipeline. The vendor finalizes a day's summaries
// some hours after midnight, so every cycle re-fetches a small trailing
// window rather than only the current day.
type SyncCollector struct {
	source   drepo.VendorSource
	proc     *RecordProcessor
	metrics  drepo.Metrics
	pipe     *mid.IngestPipeline
	log      *logger.Logger
	interval time.Duration
	lookback int // days re-fetched each cycle
	cancel   context.CancelFunc

	recompute     queue.QueueService
	recomputeDays int
}

// SetRecomputeQueue makes the collector enqueue a report recomputation after
// every completed sync window.
func (c *SyncCollector) SetRecomputeQueue(q queue.QueueService, days int) {
	c.recompute = q
	if days <= 0 {
		days = 90
	}
	c.recomputeDays = days
}

func NewSyncCollector(
	source drepo.VendorSource,
	proc *RecordProcessor,
	metrics drepo.Metrics,
	pipe *mid.IngestPipeline,
	log *logger.Logger,
	interval time.Duration,
	lookback int,
) *SyncCollector {
	if interval <= 0 {
		interval = time.Hour
	}
	if lookback <= 0 {
		lookback = 3
	}
	return &SyncCollector{
		source:   source,
		proc:     proc,
		metrics:  metrics,
		pipe:     pipe,
		log:      log,
		interval: interval,
		lookback: lookback,
	}
}

// Start verifies vendor reachability and launches the periodic sync loop.
func (c *SyncCollector) Start(ctx context.Context) error {
	if err := c.source.Health(ctx); err != nil {
		return fmt.Errorf("vendor health: %w", err)
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
	return nil
}

func (c *SyncCollector) loop(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.syncWindow(ctx, c.lookback)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.syncWindow(ctx, c.lookback)
		}
	}
}

// Backfill pulls the trailing n days once, outside the periodic schedule.
func (c *SyncCollector) Backfill(ctx context.Context, days int) error {
	if days <= 0 {
		return fmt.Errorf("days must be positive")
	}
	return c.syncWindow(ctx, days)
}

func (c *SyncCollector) syncWindow(ctx context.Context, days int) error {
	to := models.DayKey(time.Now())
	from := to.AddDate(0, 0, -(days - 1))

	records, err := c.source.FetchRange(ctx, from, to)
	if err != nil {
		c.metrics.RecordError("vendor_fetch")
		c.log.Error("vendor fetch failed",
			logger.Error(err),
			logger.String("from", from.Format("2006-01-02")),
			logger.String("to", to.Format("2006-01-02")))
		return err
	}

	for i := range records {
		r := &records[i]
		if c.pipe != nil {
			_ = c.pipe.Process(ctx, r)
		} else {
			_ = c.proc.Process(ctx, r)
		}
	}
	c.log.Info("sync window complete",
		logger.Int("days", days),
		logger.Int("records", len(records)))

	if c.recompute != nil && len(records) > 0 {
		payload := RecomputePayload{Days: c.recomputeDays}
		if err := c.recompute.PublishMessage(ctx, RecomputeMessageType, payload); err != nil {
			c.log.Warn("recompute enqueue failed", logger.Error(err))
		}
	}
	return nil
}

// Processor returns the underlying RecordProcessor for lifecycle management.
func (c *SyncCollector) Processor() *RecordProcessor { return c.proc }

// Shutdown stops the loop and pipeline and releases the vendor client.
func (c *SyncCollector) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.source.Close()
}
