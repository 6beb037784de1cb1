package vecsync

import "time"

// LogEntry mirrors a single row of the change log.
type LogEntry struct {
	SCN       int64
	Op        string
	EntryID   string
	Payload   []byte
	CreatedAt time.Time
}

// Payload is the decoded form of LogEntry.Payload.
type Payload struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Pattern   string `json:"pattern"`
	Tag       string `json:"tag"`
	Embedding string `json:"embedding"` // lower-case hex of the embedding BLOB
}

// Config names the tables the change log is attached to.
type Config struct {
	// Table is the tracked entries table.
	Table string

	// LogTable receives one row per change.
	LogTable string

	// SeqTable holds the next SCN.
	SeqTable string
}

// DefaultConfig returns the table names used by the vector cache.
func DefaultConfig(table string) Config {
	return Config{Table: table, LogTable: DefaultLogTable, SeqTable: DefaultSeqTable}
}
