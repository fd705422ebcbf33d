package recorder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"latent-hq/callisto/pkg/config"
	"latent-hq/callisto/pkg/patch/engine"
	"latent-hq/callisto/pkg/telemetry/metrics"
	"latent-hq/callisto/pkg/trace"
	"latent-hq/callisto/pkg/trace/storage"
)

// Default recorder settings.
const (
	// DefaultAsyncBuffer is the record channel capacity.
	DefaultAsyncBuffer = 1000

	// DefaultWriteTimeout bounds a single storage write.
	DefaultWriteTimeout = 5 * time.Second
)

// Config contains configuration for the trace recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// DropOnFull controls behavior when the buffer is full. When true,
	// new records are counted and discarded so sampling never blocks
	// on storage. When false, enqueue blocks up to WriteTimeout.
	// Default: true
	DropOnFull bool

	// Metrics receives write and drop counts. Optional.
	Metrics *metrics.StoreMetrics
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  DefaultAsyncBuffer,
		WriteTimeout: DefaultWriteTimeout,
		DropOnFull:   true,
	}
}

// FromConfig converts the application-level recorder configuration.
func FromConfig(cfg *config.RecorderConfig) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{
		AsyncBuffer:  cfg.AsyncBuffer,
		WriteTimeout: cfg.WriteTimeout,
		DropOnFull:   cfg.DropOnFull,
	}
}

// Recorder writes one trace record per engine evaluation. Records are
// enqueued on a buffered channel and written to storage by a background
// worker, so the sampling path never waits on a database.
//
// Recorder implements the engine's EvalRecorder callback; pass it via
// the engine configuration.
type Recorder struct {
	backend    storage.Backend
	config     *Config
	runID      string
	recordChan chan *trace.Record
	flushChan  chan chan struct{}
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	dropped    atomic.Uint64
	logger     *slog.Logger
}

// New creates a recorder writing to the provided storage backend and
// starts its background worker. A nil config uses defaults. The
// recorder owns a fresh run ID stamped on every record it writes.
func New(backend storage.Backend, cfg *Config) *Recorder {
	c := DefaultConfig()
	if cfg != nil {
		*c = *cfg
	}
	if c.AsyncBuffer <= 0 {
		c.AsyncBuffer = DefaultAsyncBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}

	r := &Recorder{
		backend:    backend,
		config:     c,
		runID:      uuid.New().String(),
		recordChan: make(chan *trace.Record, c.AsyncBuffer),
		flushChan:  make(chan chan struct{}),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "trace.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("trace recorder initialized",
		"run_id", r.runID,
		"backend", backend.Name(),
		"async_buffer", c.AsyncBuffer,
		"write_timeout", c.WriteTimeout,
		"drop_on_full", c.DropOnFull,
	)

	return r
}

// RecordEvaluation builds a record from one engine evaluation and
// enqueues it for async writing. It returns immediately; when the
// buffer is full the record is dropped (DropOnFull) or the call blocks
// up to WriteTimeout.
func (r *Recorder) RecordEvaluation(ctx context.Context, inv *engine.Invocation, res *engine.Result, evalErr error) {
	rec := r.buildRecord(inv, res, evalErr)

	select {
	case r.recordChan <- rec:
		return
	default:
	}

	// Buffer full.
	if r.config.DropOnFull {
		r.dropped.Add(1)
		if r.config.Metrics != nil {
			r.config.Metrics.RecordDrop()
		}
		r.logger.Debug("trace buffer full, dropping record",
			"record_id", rec.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		return
	}

	select {
	case r.recordChan <- rec:
	case <-time.After(r.config.WriteTimeout):
		r.dropped.Add(1)
		if r.config.Metrics != nil {
			r.config.Metrics.RecordDrop()
		}
		r.logger.Error("trace channel full, dropping record",
			"record_id", rec.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
	case <-r.done:
		r.logger.Warn("recorder shutting down, dropping record",
			"record_id", rec.ID,
		)
	}
}

// Flush blocks until every record enqueued before the call has been
// written, or the context expires. Flushing a closed recorder is a
// no-op.
func (r *Recorder) Flush(ctx context.Context) error {
	ack := make(chan struct{})

	select {
	case r.flushChan <- ack:
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the buffer, waits for in-flight writes to finish, and
// stops the worker. It does not close the storage backend.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down trace recorder", "run_id", r.runID)

		close(r.done)
		r.wg.Wait()

		if n := r.dropped.Load(); n > 0 {
			r.logger.Warn("trace records were dropped during the run",
				"run_id", r.runID,
				"dropped", n,
			)
		}
	})
	return nil
}

// RunID returns the identifier stamped on every record this recorder
// writes.
func (r *Recorder) RunID() string {
	return r.runID
}

// Dropped returns the number of records discarded because the buffer
// was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Pending returns the number of records buffered but not yet written.
func (r *Recorder) Pending() int {
	return len(r.recordChan)
}

// buildRecord converts one evaluation into a storable record. On an
// evaluation error the result is nil and the schedule fields keep
// their -1 sentinels.
func (r *Recorder) buildRecord(inv *engine.Invocation, res *engine.Result, evalErr error) *trace.Record {
	rec := &trace.Record{
		ID:        uuid.New().String(),
		RunID:     r.runID,
		Time:      time.Now(),
		Stage:     -1,
		Step:      -1,
		StepExact: -1,
	}

	if inv != nil {
		rec.Site = inv.Site
		rec.Block = inv.Block
		rec.Sigma = inv.Sigma
		if inv.Site == engine.SitePostCFG || inv.Site == engine.SiteLatent {
			rec.Block = -1
		}
	}

	if res != nil {
		rec.Stage = res.Stage
		rec.Percent = res.Percent
		rec.Step = res.Step
		rec.StepExact = res.StepExact
		rec.SigmaNext = res.SigmaNext
		rec.MatchedRules = res.MatchedRules
		rec.OpsApplied = res.OpsApplied
		rec.Skipped = res.Skipped
		rec.Duration = res.Duration
	}

	if evalErr != nil {
		rec.Error = evalErr.Error()
	}

	return rec
}

// worker is the background goroutine that drains the record channel
// and writes to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case rec := <-r.recordChan:
			r.writeRecord(rec)

		case ack := <-r.flushChan:
			r.drain()
			close(ack)

		case <-r.done:
			r.logger.Debug("draining trace channel before shutdown",
				"pending_count", len(r.recordChan),
			)
			r.drain()
			return
		}
	}
}

// drain writes every record currently buffered, then returns.
func (r *Recorder) drain() {
	for {
		select {
		case rec := <-r.recordChan:
			r.writeRecord(rec)
		default:
			return
		}
	}
}

// writeRecord writes a single record to storage.
func (r *Recorder) writeRecord(rec *trace.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.backend.Save(ctx, rec)
	duration := time.Since(start)

	if r.config.Metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		r.config.Metrics.RecordWrite(r.backend.Name(), status, duration)
	}

	if err != nil {
		r.logger.Error("failed to store trace record",
			"record_id", rec.ID,
			"site", rec.Site,
			"error", err,
		)
		return
	}

	r.logger.Debug("trace recorded",
		"record_id", rec.ID,
		"site", rec.Site,
		"block", rec.Block,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow trace write",
			"record_id", rec.ID,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}
