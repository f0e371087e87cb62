package catalog

// SchemaVersion is the current catalog schema version.
const SchemaVersion = 1

// Schema creates the catalog tables.
const Schema = `
CREATE TABLE IF NOT EXISTS export_jobs (
    id TEXT PRIMARY KEY,
    output_path TEXT NOT NULL DEFAULT '',
    first_ts REAL NOT NULL DEFAULT 0,
    last_ts REAL NOT NULL DEFAULT 0,
    frame_count INTEGER NOT NULL DEFAULT 0,
    window_minutes REAL NOT NULL,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_export_jobs_started_at ON export_jobs(started_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

const insertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`

const getSchemaVersion = `SELECT MAX(version) FROM schema_version`

const upsertJob = `
INSERT INTO export_jobs (id, output_path, first_ts, last_ts, frame_count, window_minutes, status, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    output_path = excluded.output_path,
    first_ts = excluded.first_ts,
    last_ts = excluded.last_ts,
    frame_count = excluded.frame_count,
    window_minutes = excluded.window_minutes,
    status = excluded.status,
    error = excluded.error,
    started_at = excluded.started_at,
    finished_at = excluded.finished_at
`

const selectJobColumns = `SELECT id, output_path, first_ts, last_ts, frame_count, window_minutes, status, error, started_at, finished_at FROM export_jobs`
