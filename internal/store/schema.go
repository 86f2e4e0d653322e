package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

const schema = `
-- Client devices participating in sync
CREATE TABLE IF NOT EXISTS clients (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    first_seen_at TEXT NOT NULL,
    last_seen_at TEXT NOT NULL
);

-- Single-row scalar: timestamp of the most recent accepted write
CREATE TABLE IF NOT EXISTS meta_sync (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_modified TEXT
);

-- Tracker definitions (habits, metrics, supplements)
CREATE TABLE IF NOT EXISTS trackers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'simple',
    meta_json TEXT,
    version INTEGER NOT NULL,
    deleted INTEGER NOT NULL DEFAULT 0,
    last_modified_by TEXT NOT NULL DEFAULT '',
    last_modified_at TEXT NOT NULL
);

-- Daily entries, one per (date, tracker)
CREATE TABLE IF NOT EXISTS entries (
    date TEXT NOT NULL,
    tracker_id TEXT NOT NULL,
    value REAL,
    completed INTEGER,
    version INTEGER NOT NULL,
    last_modified_by TEXT NOT NULL DEFAULT '',
    last_modified_at TEXT NOT NULL,
    PRIMARY KEY (date, tracker_id)
);

-- One row per conflict resolution event
CREATE TABLE IF NOT EXISTS sync_conflicts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity_type TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    resolution TEXT NOT NULL,
    client_id TEXT NOT NULL DEFAULT '',
    resolved_at TEXT,
    created_at TEXT NOT NULL
);

-- Schema info table
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_trackers_name ON trackers(name);
CREATE INDEX IF NOT EXISTS idx_trackers_modified ON trackers(last_modified_at);
CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);
CREATE INDEX IF NOT EXISTS idx_entries_modified ON entries(last_modified_at);
CREATE INDEX IF NOT EXISTS idx_conflicts_resolved ON sync_conflicts(resolved_at);
`

// Migration defines a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations is the list of all database migrations in order
var Migrations = []Migration{
	// Version 1 is the initial schema - no migration needed
}
