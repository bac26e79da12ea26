package sqlite

const schema = `
-- One row per probe invocation
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    host TEXT NOT NULL,
    port INTEGER NOT NULL,
    mode TEXT NOT NULL,
    repeat INTEGER NOT NULL,
    attempts INTEGER DEFAULT 0,
    succeeded INTEGER DEFAULT 0,
    started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP
);

-- One row per iteration
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    iteration INTEGER NOT NULL,
    success BOOLEAN NOT NULL,
    connect_ms REAL,
    error_kind TEXT NOT NULL DEFAULT '',
    error_message TEXT NOT NULL DEFAULT '',
    response_hex TEXT NOT NULL DEFAULT '',
    tested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(host, port);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_attempts_run_id ON attempts(run_id);
`

// runMigrations executes the database schema
func runMigrations(db *DB) error {
	_, err := db.db.Exec(schema)
	return err
}
