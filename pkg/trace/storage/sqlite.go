package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers driver "sqlite" (pure Go)

	"latent-hq/callisto/pkg/trace"
)

// Driver names accepted by SQLiteConfig.Driver. Both drivers serve the
// same schema; the cgo driver is faster, the pure Go driver needs no
// toolchain support.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// SQLiteConfig contains configuration for the SQLite backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver, DriverCGO or DriverPure.
	// Default: DriverCGO
	Driver string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/traces.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLite implements the Backend interface on a SQLite database.
type SQLite struct {
	db         *sql.DB
	config     *SQLiteConfig
	insertStmt *sql.Stmt
	logger     *slog.Logger
}

// NewSQLite creates a SQLite backend. It creates the parent directory
// and database file if needed, initializes the schema, and enables WAL
// mode if configured.
func NewSQLite(config *SQLiteConfig) (*SQLite, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	driver := config.Driver
	if driver == "" {
		driver = DriverCGO
	}
	if driver != DriverCGO && driver != DriverPure {
		return nil, trace.NewStorageError("sqlite", "open",
			fmt.Errorf("unknown driver %q (want %q or %q)", driver, DriverCGO, DriverPure))
	}

	if dir := filepath.Dir(config.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, trace.NewStorageError("sqlite", "open", err)
		}
	}

	logger := slog.Default().With("component", "trace.storage.sqlite")

	db, err := sql.Open(driver, config.Path)
	if err != nil {
		return nil, trace.NewStorageError("sqlite", "open", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	s := &SQLite{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("trace storage initialized",
		"path", config.Path,
		"driver", driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLite) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return trace.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeout := s.config.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return trace.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return trace.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return trace.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return trace.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return trace.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	stmt, err := s.db.Prepare(insertRecord)
	if err != nil {
		return trace.NewStorageError("sqlite", "prepare_insert", err)
	}
	s.insertStmt = stmt

	return nil
}

// Save persists a trace record.
func (s *SQLite) Save(ctx context.Context, rec *trace.Record) error {
	var errorVal interface{}
	if rec.Error != "" {
		errorVal = rec.Error
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.ID, rec.RunID, rec.Time.UnixNano(),
		rec.Site, rec.Block, rec.Stage,
		rec.Percent, rec.Step, rec.StepExact, rec.Sigma, rec.SigmaNext,
		rec.MatchedRules, rec.OpsApplied, rec.Skipped,
		rec.Duration.Microseconds(), errorVal,
	)
	if err != nil {
		return trace.NewStorageError("sqlite", "save", err)
	}

	return nil
}

// Query retrieves records matching the filter.
func (s *SQLite) Query(ctx context.Context, filter *trace.Filter) ([]*trace.Record, error) {
	if filter == nil {
		filter = &trace.Filter{}
	}

	whereClause, args := buildWhereClause(filter)

	sqlQuery := "SELECT " + selectColumns + " FROM traces"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY " + orderClause(filter)

	limit := 100
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if filter.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, trace.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*trace.Record{}
	for rows.Next() {
		rec, err := scanRow(rows)
		if err != nil {
			return nil, trace.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, trace.NewStorageError("sqlite", "query", err)
	}

	return records, nil
}

// Count returns the number of records matching the filter.
func (s *SQLite) Count(ctx context.Context, filter *trace.Filter) (int64, error) {
	if filter == nil {
		filter = &trace.Filter{}
	}

	whereClause, args := buildWhereClause(filter)

	sqlQuery := "SELECT COUNT(*) FROM traces"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, trace.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Prune deletes records older than the cutoff, then the oldest surplus
// beyond the keep limit.
func (s *SQLite) Prune(ctx context.Context, before time.Time, keep int64) (int64, error) {
	var total int64

	if !before.IsZero() {
		result, err := s.db.ExecContext(ctx, "DELETE FROM traces WHERE time_ns < ?", before.UnixNano())
		if err != nil {
			return total, trace.NewStorageError("sqlite", "prune_age", err)
		}
		deleted, err := result.RowsAffected()
		if err != nil {
			return total, trace.NewStorageError("sqlite", "prune_age", err)
		}
		total += deleted
	}

	if keep > 0 {
		count, err := s.Count(ctx, nil)
		if err != nil {
			return total, err
		}
		if count > keep {
			surplus := count - keep
			result, err := s.db.ExecContext(ctx,
				"DELETE FROM traces WHERE id IN (SELECT id FROM traces ORDER BY time_ns ASC LIMIT ?)",
				surplus)
			if err != nil {
				return total, trace.NewStorageError("sqlite", "prune_count", err)
			}
			deleted, err := result.RowsAffected()
			if err != nil {
				return total, trace.NewStorageError("sqlite", "prune_count", err)
			}
			total += deleted
		}
	}

	return total, nil
}

// Name returns BackendSQLite.
func (s *SQLite) Name() string {
	return BackendSQLite
}

// Close releases the prepared statement and database connection.
func (s *SQLite) Close() error {
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}

	if err := s.db.Close(); err != nil {
		return trace.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("trace storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from filter criteria.
// Returns the clause without the "WHERE" keyword and its arguments.
func buildWhereClause(filter *trace.Filter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.Start != nil {
		conditions = append(conditions, "time_ns >= ?")
		args = append(args, filter.Start.UnixNano())
	}
	if filter.End != nil {
		conditions = append(conditions, "time_ns <= ?")
		args = append(args, filter.End.UnixNano())
	}

	if filter.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Site != "" {
		conditions = append(conditions, "site = ?")
		args = append(args, filter.Site)
	}
	if filter.Block != nil {
		conditions = append(conditions, "block = ?")
		args = append(args, *filter.Block)
	}

	if filter.MinStep != nil {
		conditions = append(conditions, "step >= ?")
		args = append(args, *filter.MinStep)
	}
	if filter.MaxStep != nil {
		conditions = append(conditions, "step <= ?")
		args = append(args, *filter.MaxStep)
	}

	switch filter.Status {
	case trace.StatusOK:
		conditions = append(conditions, "error IS NULL AND skipped = 0")
	case trace.StatusSkipped:
		conditions = append(conditions, "skipped = 1")
	case trace.StatusError:
		conditions = append(conditions, "error IS NOT NULL")
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// orderClause maps the filter's sort fields onto whitelisted columns.
// Filter fields never reach the SQL text directly.
func orderClause(filter *trace.Filter) string {
	column := "time_ns"
	switch filter.SortBy {
	case "step":
		column = "step"
	case "duration":
		column = "duration_us"
	}

	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	return column + " " + order
}

// scanRow scans a database row into a Record.
func scanRow(rows *sql.Rows) (*trace.Record, error) {
	var rec trace.Record
	var timeNs int64
	var durationUs int64
	var errorVal sql.NullString

	err := rows.Scan(
		&rec.ID, &rec.RunID, &timeNs,
		&rec.Site, &rec.Block, &rec.Stage,
		&rec.Percent, &rec.Step, &rec.StepExact, &rec.Sigma, &rec.SigmaNext,
		&rec.MatchedRules, &rec.OpsApplied, &rec.Skipped,
		&durationUs, &errorVal,
	)
	if err != nil {
		return nil, err
	}

	rec.Time = time.Unix(0, timeNs).UTC()
	rec.Duration = time.Duration(durationUs) * time.Microsecond
	if errorVal.Valid {
		rec.Error = errorVal.String
	}

	return &rec, nil
}
