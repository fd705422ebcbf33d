// Package retention provides retention policy enforcement for trace
// records.
//
// # Retention Policy
//
// The package prunes old trace records so an always-on recorder does
// not grow storage without bound:
//
//   - Configurable maximum record age
//   - Configurable maximum record count
//   - Scheduled pruning (cron expression)
//
// # Basic Usage
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    MaxAge:   7 * 24 * time.Hour,
//	    Schedule: "0 3 * * *", // Daily at 3 AM
//	})
//
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
//
//	if next := pruner.NextPruning(); next != nil {
//	    slog.Info("next pruning scheduled", "at", next)
//	}
//
// # Manual Pruning
//
// Pruning can also be triggered directly, which is what the trace
// prune CLI command does:
//
//	deleted, err := pruner.Prune(ctx)
//
// # Phases
//
// A pruning cycle enforces age first, then count: records older than
// MaxAge are deleted, and if more than MaxRecords remain the oldest
// surplus goes too. Both phases happen in one storage call, so the
// backend can use a single transaction.
package retention
