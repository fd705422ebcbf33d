package storage

import (
	"context"
	"fmt"
	"time"

	"latent-hq/callisto/pkg/config"
	"latent-hq/callisto/pkg/trace"
)

// Backend is the interface trace storage implementations satisfy.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Save persists one record.
	Save(ctx context.Context, rec *trace.Record) error

	// Query retrieves records matching the filter. Returns an empty
	// slice when nothing matches.
	Query(ctx context.Context, filter *trace.Filter) ([]*trace.Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter *trace.Filter) (int64, error)

	// Prune deletes records older than the cutoff, then enforces the
	// keep limit by deleting the oldest surplus records. A zero cutoff
	// skips the age phase; keep <= 0 skips the count phase. Returns
	// the number of records deleted.
	Prune(ctx context.Context, before time.Time, keep int64) (int64, error)

	// Name returns the backend name, one of the Backend constants.
	Name() string

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates the backend named by the trace configuration. An empty
// backend name selects memory.
func Open(cfg *config.TraceConfig) (Backend, error) {
	if cfg == nil {
		return NewMemory(0), nil
	}

	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(cfg.Memory.Capacity), nil
	case BackendSQLite:
		return NewSQLite(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown trace backend: %q", cfg.Backend)
	}
}
