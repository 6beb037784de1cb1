package vecsync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLogTable is the change-log table that captures row-level SCN events.
	DefaultLogTable = "cache_log"

	// DefaultSeqTable stores the next SCN.
	DefaultSeqTable = "cache_scn"
)

// LogTableDDL returns the DDL for the change-log table.
func LogTableDDL(logTable string) string {
	return `CREATE TABLE IF NOT EXISTS ` + logTable + ` (
    scn        INTEGER PRIMARY KEY,
    op         TEXT NOT NULL,
    entry_id   TEXT NOT NULL,
    payload    BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
}

// SeqTableDDL returns the DDL for the single-row SCN counter.
func SeqTableDDL(seqTable string) string {
	return `CREATE TABLE IF NOT EXISTS ` + seqTable + ` (
    id       INTEGER PRIMARY KEY CHECK (id = 1),
    next_scn INTEGER NOT NULL
);`
}

// SQLiteChangeLogTriggers returns the trigger DDL statements that capture
// inserts, updates, and deletes against the entries table into the log
// table. The payload is serialized as JSON with a hex-encoded embedding.
func SQLiteChangeLogTriggers(cfg Config) []string {
	if cfg.SeqTable == "" {
		cfg.SeqTable = DefaultSeqTable
	}
	if cfg.LogTable == "" {
		cfg.LogTable = DefaultLogTable
	}
	base := sanitizeIdentifier(cfg.Table)
	payload := func(alias string) string {
		return fmt.Sprintf(`json_object(
        'id', %[1]s.id,
        'seq', %[1]s.seq,
        'pattern', %[1]s.pattern,
        'tag', %[1]s.tag,
        'embedding', lower(hex(%[1]s.embedding))
    )`, alias)
	}
	advance := fmt.Sprintf(`INSERT INTO %s(id, next_scn) VALUES (1, 1)
    ON CONFLICT(id) DO UPDATE SET next_scn = next_scn + 1;`, cfg.SeqTable)
	scnExpr := fmt.Sprintf(`(SELECT next_scn FROM %s WHERE id = 1)`, cfg.SeqTable)

	trigger := func(suffix, event, op, alias string) string {
		return fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_%s AFTER %s ON %s
BEGIN
    %s
    INSERT INTO %s(scn, op, entry_id, payload)
    VALUES (%s, '%s', %s.id, %s);
END;`, base, suffix, event, cfg.Table, advance, cfg.LogTable, scnExpr, op, alias, payload(alias))
	}
	return []string{
		trigger("ai", "INSERT", "insert", "NEW"),
		trigger("au", "UPDATE", "update", "NEW"),
		trigger("ad", "DELETE", "delete", "OLD"),
	}
}

// Install creates the log and sequence tables and the triggers on cfg.Table.
func Install(ctx context.Context, db *sql.DB, cfg Config) error {
	stmts := append([]string{LogTableDDL(cfg.LogTable), SeqTableDDL(cfg.SeqTable)}, SQLiteChangeLogTriggers(cfg)...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("vecsync: install: %w", err)
		}
	}
	return nil
}

// ReadLog returns up to limit entries, newest first. limit <= 0 returns all.
func ReadLog(ctx context.Context, db *sql.DB, logTable string, limit int) ([]LogEntry, error) {
	if logTable == "" {
		logTable = DefaultLogTable
	}
	q := `SELECT scn, op, entry_id, payload, created_at FROM ` + logTable + ` ORDER BY scn DESC`
	args := []interface{}{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vecsync: read log: %w", err)
	}
	defer rows.Close()
	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var created string
		if err := rows.Scan(&e.SCN, &e.Op, &e.EntryID, &e.Payload, &created); err != nil {
			return nil, fmt.Errorf("vecsync: read log: %w", err)
		}
		e.CreatedAt = parseTimestamp(created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vecsync: read log: %w", err)
	}
	return out, nil
}

// Decode parses the JSON payload of a log entry.
func (e LogEntry) Decode() (Payload, error) {
	var p Payload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return p, fmt.Errorf("vecsync: decode payload scn=%d: %w", e.SCN, err)
	}
	return p, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05Z"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return replacer.Replace(name)
}
