package veccache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/viant/intentbot/engine"
	"github.com/viant/intentbot/vector"
	"github.com/viant/intentbot/vecsync"
)

// Cache is the SQLite-backed vector cache.
type Cache struct {
	db   *sql.DB
	path string
}

// Create opens the cache file at path, creating it and its schema when
// needed. Training uses Create; chatting uses Open.
func Create(ctx context.Context, path string) (*Cache, error) {
	db, err := engine.OpenFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db, path: path}, nil
}

// Open opens an existing cache file. A missing file yields ErrCacheNotFound.
func Open(ctx context.Context, path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheNotFound, path)
		}
		return nil, fmt.Errorf("veccache: stat %s: %w", path, err)
	}
	return Create(ctx, path)
}

// Close closes the underlying database.
func (c *Cache) Close() error { return c.db.Close() }

// Path returns the cache file path.
func (c *Cache) Path() string { return c.path }

// Replace swaps the whole cache content for snap in one transaction. The
// change log is cleared once the old rows are gone, so it only describes the
// new generation.
func (c *Cache) Replace(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("veccache: replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("veccache: replace: clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+vecsync.DefaultLogTable); err != nil {
		return fmt.Errorf("veccache: replace: clear log: %w", err)
	}
	if err := setMeta(ctx, tx, metaModelName, snap.ModelName); err != nil {
		return err
	}
	if err := setMeta(ctx, tx, metaDimension, strconv.Itoa(snap.Dimension())); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_entries(id, seq, pattern, tag, embedding) VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("veccache: replace: %w", err)
	}
	defer stmt.Close()
	for i := range snap.Patterns {
		blob, err := vector.EncodeEmbedding(snap.Embeddings[i])
		if err != nil {
			return fmt.Errorf("veccache: replace: row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), i, snap.Patterns[i], snap.Tags[i], blob); err != nil {
			return fmt.Errorf("veccache: replace: row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("veccache: replace: commit: %w", err)
	}
	return nil
}

// Load returns the cache content ordered by position.
func (c *Cache) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{}
	model, err := c.ModelName(ctx)
	if err != nil {
		return snap, err
	}
	snap.ModelName = model
	entries, err := c.Entries(ctx)
	if err != nil {
		return snap, err
	}
	for _, e := range entries {
		snap.Patterns = append(snap.Patterns, e.Pattern)
		snap.Tags = append(snap.Tags, e.Tag)
		snap.Embeddings = append(snap.Embeddings, e.Embedding)
	}
	if err := snap.Validate(); err != nil {
		return snap, err
	}
	return snap, nil
}

// Entries returns every entry ordered by position.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, pattern, tag, embedding FROM cache_entries ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("veccache: entries: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var blob []byte
		if err := rows.Scan(&e.ID, &e.Pattern, &e.Tag, &blob); err != nil {
			return nil, fmt.Errorf("veccache: entries: %w", err)
		}
		if e.Embedding, err = vector.DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("veccache: entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("veccache: entries: %w", err)
	}
	return out, nil
}

// Append stores one entry after the current last position and returns its
// ID. The first entry of an empty cache fixes the cache dimension.
func (c *Cache) Append(ctx context.Context, e Entry) (string, error) {
	if len(e.Embedding) == 0 {
		return "", fmt.Errorf("veccache: append: empty embedding")
	}
	blob, err := vector.EncodeEmbedding(e.Embedding)
	if err != nil {
		return "", fmt.Errorf("veccache: append: %w", err)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("veccache: append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	dim, err := getDimension(ctx, tx)
	if err != nil {
		return "", err
	}
	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return "", fmt.Errorf("veccache: append: %w", err)
	}
	switch {
	case count == 0 || dim == 0:
		if err := setMeta(ctx, tx, metaDimension, strconv.Itoa(len(e.Embedding))); err != nil {
			return "", err
		}
	case dim != len(e.Embedding):
		return "", fmt.Errorf("%w: got %d, cache holds %d", ErrDimensionMismatch, len(e.Embedding), dim)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO cache_entries(id, seq, pattern, tag, embedding)
VALUES(?, COALESCE((SELECT MAX(seq) + 1 FROM cache_entries), 0), ?, ?, ?)`, e.ID, e.Pattern, e.Tag, blob); err != nil {
		return "", fmt.Errorf("veccache: append: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("veccache: append: commit: %w", err)
	}
	return e.ID, nil
}

// Remove deletes one entry by ID.
func (c *Cache) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("veccache: Remove called with empty id")
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("veccache: remove %s: %w", id, err)
	}
	return nil
}

// RemoveTag deletes every entry of tag and reports how many were removed.
func (c *Cache) RemoveTag(ctx context.Context, tag string) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE tag = ?`, tag)
	if err != nil {
		return 0, fmt.Errorf("veccache: remove tag %q: %w", tag, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// RemovePattern deletes the entries of tag whose pattern matches exactly.
func (c *Cache) RemovePattern(ctx context.Context, tag, pattern string) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE tag = ? AND pattern = ?`, tag, pattern)
	if err != nil {
		return 0, fmt.Errorf("veccache: remove pattern %q/%q: %w", tag, pattern, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ModelName returns the embedding model recorded in the cache, or "" when
// the cache has never been trained.
func (c *Cache) ModelName(ctx context.Context) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE key = ?`, metaModelName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("veccache: model name: %w", err)
	}
	return name, nil
}

// SetModelName records the embedding model without touching the entries.
func (c *Cache) SetModelName(ctx context.Context, name string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("veccache: set model name: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := setMeta(ctx, tx, metaModelName, name); err != nil {
		return err
	}
	return tx.Commit()
}

// Nearest scores every entry against query with vec_cosine inside SQLite and
// returns the k best. Entries whose embedding cannot be compared are skipped.
func (c *Cache) Nearest(ctx context.Context, query []float32, k int) ([]Match, error) {
	blob, err := vector.EncodeEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("veccache: nearest: %w", err)
	}
	if k <= 0 {
		k = -1 // SQLite: no limit
	}
	rows, err := c.db.QueryContext(ctx, `SELECT id, pattern, tag, score FROM (
    SELECT id, seq, pattern, tag, vec_cosine(embedding, ?) AS score FROM cache_entries
) WHERE score IS NOT NULL ORDER BY score DESC, seq ASC LIMIT ?`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("veccache: nearest: %w", err)
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Pattern, &m.Tag, &m.Score); err != nil {
			return nil, fmt.Errorf("veccache: nearest: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("veccache: nearest: %w", err)
	}
	return out, nil
}

// History returns the newest change-log entries.
func (c *Cache) History(ctx context.Context, limit int) ([]vecsync.LogEntry, error) {
	return vecsync.ReadLog(ctx, c.db, vecsync.DefaultLogTable, limit)
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO cache_meta(key, value) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("veccache: set %s: %w", key, err)
	}
	return nil
}

func getDimension(ctx context.Context, tx *sql.Tx) (int, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT value FROM cache_meta WHERE key = ?`, metaDimension).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("veccache: dimension: %w", err)
	}
	dim, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("veccache: dimension %q: %w", raw, err)
	}
	return dim, nil
}
