// Package trace records engine evaluations for postmortem analysis of
// sampling runs. Each evaluation produces one immutable record; the
// record stream answers "which rules fired at which steps, and what did
// they cost" after the images are long gone.
//
// # Architecture
//
// The trace system consists of three layers:
//
//  1. Recorder - builds records from engine evaluations, off the hot path
//  2. Storage Backend - persists records (memory ring, SQLite)
//  3. Retention - prunes old records on a schedule
//
// # Records
//
// Each record captures:
//   - Model position (site, block, stage)
//   - Schedule position (percent, step, step_exact, sigma, sigma_next)
//   - Outcome (matched rules, operations applied, skipped)
//   - Evaluation duration and error, if any
//   - A run ID tying all records of one sampling process together
//
// # Recording Flow
//
// Recording is asynchronous so the sampling loop never waits on a
// database write. The engine calls the recorder synchronously; the
// recorder snapshots the evaluation into a record, enqueues it, and
// returns. A worker goroutine drains the queue into storage. When the
// queue is full the record is counted as dropped rather than blocking
// an evaluation.
//
// # Basic Usage
//
//	// Initialize storage backend
//	store, err := storage.NewSQLite(&storage.SQLiteConfig{
//	    Path:    "traces/run.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	// Create the recorder and hand it to the engine
//	rec := recorder.New(store, nil)
//	defer rec.Close()
//
//	eng, err := engine.New(&engine.Config{
//	    // ...
//	    Recorder: rec,
//	})
//
// # Querying Records
//
//	filter := &trace.Filter{
//	    Site:   "output_4",
//	    Status: trace.StatusOK,
//	    Limit:  100,
//	}
//	records, err := store.Query(ctx, filter)
//
// # Retention
//
// Records can be pruned by age, by count, or both, optionally on a
// cron schedule:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    MaxAge:   7 * 24 * time.Hour,
//	    Schedule: "0 3 * * *", // daily at 3 AM
//	})
//	pruner.Start(ctx)
//	defer pruner.Stop()
//
// # Thread Safety
//
// All trace types are safe for concurrent use. The recorder serializes
// writes through its worker; storage backends take their own locks.
package trace
