package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"VitaPull/internal/domain/models"
	domrepo "VitaPull/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, r *models.DailyRecord) error
}

// IngestPipeline sits between the vendor sync loop and the storage backend.
// It validates records, deduplicates repeated syncs of the same day, and
// buffers when downstream is unavailable.
type IngestPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	// repeated syncs of one calendar day inside this window are dropped
	dedupeWindow time.Duration
	bufSize      int
	bufCh        chan *models.DailyRecord
	stopCh       chan struct{}
	started      bool
	mu           sync.Mutex
	lastSeen     map[string]time.Time // day key -> last accepted time
	// optional record rewrite hook before validation downstream
	transform func(*models.DailyRecord) *models.DailyRecord
}

type PipelineOption func(*IngestPipeline)

// WithDedupeWindow sets how long a day's record is considered fresh.
func WithDedupeWindow(d time.Duration) PipelineOption {
	return func(p *IngestPipeline) {
		if d > 0 {
			p.dedupeWindow = d
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook to rewrite records in flight.
func WithTransform(fn func(*models.DailyRecord) *models.DailyRecord) PipelineOption {
	return func(p *IngestPipeline) { p.transform = fn }
}

func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:         proc,
		metrics:      metrics,
		dedupeWindow: time.Minute,
		bufSize:      1000,
		bufCh:        make(chan *models.DailyRecord, 1000),
		stopCh:       make(chan struct{}),
		lastSeen:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.DailyRecord, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered records.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case r := <-p.bufCh:
				if r == nil {
					continue
				}
				if err := p.proc.Process(ctx, r); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- r:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, deduplicates, and forwards the record downstream,
// buffering on downstream errors.
func (p *IngestPipeline) Process(ctx context.Context, r *models.DailyRecord) error {
	start := time.Now()
	if err := validateRecord(r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		r = p.transform(r)
		if err := validateRecord(r); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(r.Day, start) {
		// duplicate sync of a fresh day; drop silently
		p.metrics.RecordError("pipeline_dedupe")
		return nil
	}

	if err := p.proc.Process(ctx, r); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- r:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateRecord(r *models.DailyRecord) error {
	if r == nil {
		return fmt.Errorf("record nil")
	}
	if r.Day.IsZero() {
		return fmt.Errorf("day unset")
	}
	if len(r.Metrics) == 0 {
		return fmt.Errorf("record has no metrics")
	}
	for name, v := range r.Metrics {
		if !models.IsKnownMetric(name) {
			return fmt.Errorf("unknown metric %q", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("metric %q not finite", name)
		}
	}
	return nil
}

func (p *IngestPipeline) allow(day time.Time, now time.Time) bool {
	if p.dedupeWindow <= 0 {
		return true
	}
	key := day.Format("2006-01-02")
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[key]
	if !last.IsZero() && now.Sub(last) < p.dedupeWindow {
		return false
	}
	p.lastSeen[key] = now
	return true
}
