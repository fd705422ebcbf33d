package retention

import (
	"context"
	"log/slog"
	"time"

	"latent-hq/callisto/pkg/config"
	"latent-hq/callisto/pkg/telemetry/metrics"
	"latent-hq/callisto/pkg/trace"
	"latent-hq/callisto/pkg/trace/storage"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// MaxAge is how long trace records are kept. Records older than
	// this are deleted on the next pruning cycle.
	// 0 means keep records forever.
	MaxAge time.Duration

	// MaxRecords is the maximum number of records to keep. When the
	// total exceeds it, the oldest surplus records are deleted.
	// 0 means unlimited.
	MaxRecords int64

	// Schedule is a cron expression for automatic pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the
	// scheduler; Prune can still be called directly.
	Schedule string

	// Metrics receives pruned record counts. Optional.
	Metrics *metrics.StoreMetrics
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxAge:     30 * 24 * time.Hour,
		MaxRecords: 0,
		Schedule:   "0 3 * * *",
	}
}

// FromConfig converts the application-level retention configuration.
func FromConfig(cfg *config.RetentionConfig) *Config {
	if cfg == nil {
		return DefaultConfig()
	}
	return &Config{
		MaxAge:     time.Duration(cfg.Days) * 24 * time.Hour,
		MaxRecords: cfg.MaxRecords,
		Schedule:   cfg.PruneSchedule,
	}
}

// Pruner enforces the retention policy on trace records.
type Pruner struct {
	backend   storage.Backend
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a retention pruner for the given backend. A nil
// config uses defaults. The pruner does nothing until Prune is called
// or Start schedules it.
func NewPruner(backend storage.Backend, cfg *Config) *Pruner {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pruner := &Pruner{
		backend: backend,
		config:  cfg,
		logger:  slog.Default().With("component", "trace.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune deletes trace records violating the retention policy.
//
// Pruning happens in two phases:
//  1. Age-based: delete records older than MaxAge
//  2. Count-based: if the total still exceeds MaxRecords, delete the
//     oldest surplus
//
// Both phases run in a single backend call. Returns the total number
// of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.MaxAge <= 0 && p.config.MaxRecords <= 0 {
		p.logger.Debug("retention policy unset, nothing to prune")
		return 0, nil
	}

	var cutoff time.Time
	if p.config.MaxAge > 0 {
		cutoff = time.Now().Add(-p.config.MaxAge)
	}

	deleted, err := p.backend.Prune(ctx, cutoff, p.config.MaxRecords)
	if err != nil {
		return 0, trace.NewRetentionError(p.config.MaxAge.String(), p.config.MaxRecords, err)
	}

	if p.config.Metrics != nil && deleted > 0 {
		p.config.Metrics.RecordPruned(int(deleted))
	}

	if deleted == 0 {
		p.logger.Debug("no records pruned",
			"max_age", p.config.MaxAge,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("trace pruning completed",
			"deleted_count", deleted,
			"max_age", p.config.MaxAge,
			"max_records", p.config.MaxRecords,
		)
	}

	return deleted, nil
}

// Start starts the automatic pruning scheduler.
// Call this when starting the application.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
// Call this during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning, nil
// when nothing is scheduled.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
