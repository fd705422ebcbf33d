package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the trace database schema.
// Timestamps are stored as integer Unix nanoseconds so that both sqlite
// drivers order and round-trip them identically.
const Schema = `
-- Trace records table, one row per engine evaluation
CREATE TABLE IF NOT EXISTS traces (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    time_ns INTEGER NOT NULL,

    -- Model position
    site TEXT NOT NULL,
    block INTEGER NOT NULL,
    stage INTEGER NOT NULL,

    -- Schedule position
    percent REAL NOT NULL,
    step INTEGER NOT NULL,
    step_exact INTEGER NOT NULL,
    sigma REAL NOT NULL,
    sigma_next REAL NOT NULL,

    -- Outcome
    matched_rules INTEGER NOT NULL,
    ops_applied INTEGER NOT NULL,
    skipped BOOLEAN NOT NULL,

    duration_us INTEGER NOT NULL,
    error TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_traces_time ON traces(time_ns);
CREATE INDEX IF NOT EXISTS idx_traces_run_id ON traces(run_id);
CREATE INDEX IF NOT EXISTS idx_traces_site ON traces(site);
CREATE INDEX IF NOT EXISTS idx_traces_step ON traces(step);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// insertRecord is the prepared insert for Save.
const insertRecord = `
INSERT INTO traces (
    id, run_id, time_ns,
    site, block, stage,
    percent, step, step_exact, sigma, sigma_next,
    matched_rules, ops_applied, skipped,
    duration_us, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// selectColumns lists the record columns in scan order.
const selectColumns = `
    id, run_id, time_ns,
    site, block, stage,
    percent, step, step_exact, sigma, sigma_next,
    matched_rules, ops_applied, skipped,
    duration_us, error
`
