// ABOUTME: SQLite database schema for vector collections
// ABOUTME: Metadata fields are stored as columns so filters become WHERE clauses
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Named collections with a fixed vector size
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Entries keyed by chunk id within a collection
CREATE TABLE IF NOT EXISTS entries (
    collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
    id TEXT NOT NULL,
    text TEXT NOT NULL,
    source TEXT NOT NULL,
    file_hash TEXT NOT NULL,
    page INTEGER NOT NULL,
    chunk_on_page INTEGER NOT NULL,
    metadata TEXT NOT NULL,
    vector BLOB NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, id)
);

-- Indexes for filtered lookups
CREATE INDEX IF NOT EXISTS idx_entries_file_hash ON entries(collection, file_hash);
CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(collection, source);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
