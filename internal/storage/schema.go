package storage

const schema = `
-- The 'kv' table is a flat string key/value namespace. The stats store keeps
-- its table, its migration marker and any legacy entries here, one row per key.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`
