// Package storage provides storage backends for trace records.
//
// # Storage Backends
//
// The storage package defines the Backend interface and provides two
// implementations:
//
//   - Memory: fixed-capacity ring buffer holding the most recent records
//   - SQLite: embedded database for durable per-run or per-node traces
//
// Open selects a backend from application configuration.
//
// # SQLite Backend
//
// The SQLite backend provides durable storage with:
//
//   - A choice of driver: mattn/go-sqlite3 (cgo) or modernc.org/sqlite
//     (pure Go), both serving the same schema
//   - WAL mode for concurrent reads/writes
//   - A prepared insert statement on the save path
//   - Indexes on time, run_id, site and step
//   - Busy timeout for handling locks
//
// # Basic Usage
//
//	// Create SQLite storage
//	store, err := storage.NewSQLite(&storage.SQLiteConfig{
//	    Path:        "traces/run.db",
//	    Driver:      storage.DriverPure,
//	    WALMode:     true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	// Save a record
//	if err := store.Save(ctx, rec); err != nil {
//	    return err
//	}
//
//	// Query records
//	records, err := store.Query(ctx, &trace.Filter{
//	    Site:  "output_4",
//	    Limit: 100,
//	})
//
// # Thread Safety
//
// Both backends are safe for concurrent use. Save can be called
// concurrently with Query; WAL mode keeps readers off the writer's
// lock.
//
// # Schema Migration
//
// The SQLite backend initializes its schema on first use and records
// the schema version in the schema_version table for future migrations.
package storage
