package store

const schema = `
CREATE TABLE IF NOT EXISTS discoveries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    x INTEGER NOT NULL,
    z INTEGER NOT NULL,
    storage_count INTEGER NOT NULL,
    discovered_at TIMESTAMP NOT NULL,
    source TEXT,
    run_id TEXT
);

CREATE TABLE IF NOT EXISTS scan_stats (
    outcome TEXT PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    reason TEXT,
    stash_count INTEGER,
    snapshot_path TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_discoveries_pos ON discoveries(x, z);
CREATE INDEX IF NOT EXISTS idx_discoveries_time ON discoveries(discovered_at);
`
