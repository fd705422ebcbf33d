// Package recorder turns engine evaluations into trace records and
// writes them to a storage backend without blocking the sampling loop.
//
// # Recording Flow
//
// Records are written asynchronously so the denoiser never waits on a
// database:
//
//  1. The engine finishes evaluating a hook invocation
//  2. It calls RecordEvaluation synchronously on the sampling path
//  3. The recorder builds a record and enqueues it (non-blocking)
//  4. A background goroutine drains the channel and writes to storage
//  5. Close drains remaining records before exit
//
// # Basic Usage
//
//	store, err := storage.NewSQLite(nil)
//	if err != nil {
//	    return err
//	}
//	rec := recorder.New(store, &recorder.Config{
//	    AsyncBuffer:  1000,
//	    WriteTimeout: 5 * time.Second,
//	    DropOnFull:   true,
//	})
//	defer rec.Close()
//
//	eng, err := engine.New(prog, engine.DefaultConfig().WithRecorder(rec))
//
// # Backpressure
//
// The channel buffer absorbs write latency spikes. When it fills, the
// default behavior is to drop the newest record and count it; sampling
// throughput is worth more than a complete trace. Set DropOnFull to
// false to block instead, bounded by WriteTimeout. Dropped() reports
// the running total and Close logs it once at shutdown.
//
// # Run Identity
//
// Each recorder carries a run ID stamped on every record it writes,
// so the records of one sampling session can be queried as a group:
//
//	recs, err := store.Query(ctx, &trace.Filter{RunID: rec.RunID()})
//
// # Thread Safety
//
// RecordEvaluation, Flush and Close are safe for concurrent use. The
// background goroutine is the only writer to storage.
package recorder
