package veccache

import (
	"errors"
	"fmt"
)

var (
	// ErrCacheNotFound is returned by Open when the cache file does not exist.
	ErrCacheNotFound = errors.New("veccache: cache file not found")
	// ErrDimensionMismatch is returned when an embedding does not match the cache dimension.
	ErrDimensionMismatch = errors.New("veccache: embedding dimension mismatch")
)

// Entry is a single cached pattern.
type Entry struct {
	// ID is the entry identifier; Append assigns a UUID when empty.
	ID        string
	Pattern   string
	Tag       string
	Embedding []float32
}

// Snapshot is the full cache content: the model that produced the
// embeddings and three slices aligned by index.
type Snapshot struct {
	ModelName  string
	Patterns   []string
	Tags       []string
	Embeddings [][]float32
}

// Len reports the number of rows.
func (s Snapshot) Len() int { return len(s.Patterns) }

// Dimension returns the embedding width, or 0 for an empty snapshot.
func (s Snapshot) Dimension() int {
	if len(s.Embeddings) == 0 {
		return 0
	}
	return len(s.Embeddings[0])
}

// Validate checks index alignment and a uniform, non-zero embedding width.
func (s Snapshot) Validate() error {
	if len(s.Patterns) != len(s.Tags) || len(s.Patterns) != len(s.Embeddings) {
		return fmt.Errorf("veccache: misaligned snapshot: %d patterns, %d tags, %d embeddings",
			len(s.Patterns), len(s.Tags), len(s.Embeddings))
	}
	dim := s.Dimension()
	for i, e := range s.Embeddings {
		if len(e) == 0 || len(e) != dim {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(e), dim)
		}
	}
	return nil
}

// Match is a similarity hit computed inside SQLite.
type Match struct {
	ID      string
	Pattern string
	Tag     string
	Score   float64
}
