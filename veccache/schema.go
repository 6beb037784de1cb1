package veccache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/intentbot/vecsync"
)

const (
	entriesTable = "cache_entries"

	metaModelName = "model_name"
	metaDimension = "dimension"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS cache_entries (
    id        TEXT PRIMARY KEY,
    seq       INTEGER NOT NULL,
    pattern   TEXT NOT NULL,
    tag       TEXT NOT NULL,
    embedding BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS cache_entries_seq ON cache_entries(seq);
CREATE INDEX IF NOT EXISTS cache_entries_tag ON cache_entries(tag);
`

// EnsureSchema creates the cache tables and the change-log triggers if they
// do not already exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, cacheSchema); err != nil {
		return fmt.Errorf("veccache: schema: %w", err)
	}
	return vecsync.Install(ctx, db, vecsync.DefaultConfig(entriesTable))
}
