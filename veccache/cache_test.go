package veccache

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Create(context.Background(), filepath.Join(t.TempDir(), "embeddings.db"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		ModelName: "all-minilm",
		Patterns:  []string{"hello", "hi there", "goodbye"},
		Tags:      []string{"greeting", "greeting", "farewell"},
		Embeddings: [][]float32{
			{1, 0, 0},
			{0.9, 0.1, 0},
			{0, 0, 1},
		},
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	if !errors.Is(err, ErrCacheNotFound) {
		t.Fatalf("Open(missing) err = %v, want ErrCacheNotFound", err)
	}
}

func TestReplaceLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "embeddings.db")
	c, err := Create(ctx, path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	want := sampleSnapshot()
	if err := c.Replace(ctx, want); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	c, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()
	got, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Load mismatch:\n got %+v\nwant %+v", got, want)
	}

	// A second Replace drops the previous generation.
	next := Snapshot{ModelName: "other", Patterns: []string{"x"}, Tags: []string{"t"}, Embeddings: [][]float32{{1, 2}}}
	if err := c.Replace(ctx, next); err != nil {
		t.Fatalf("second Replace failed: %v", err)
	}
	got, err = c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, next) {
		t.Fatalf("Load after Replace mismatch: %+v", got)
	}
}

func TestReplaceRejectsMisaligned(t *testing.T) {
	c := newTestCache(t)
	snap := sampleSnapshot()
	snap.Tags = snap.Tags[:2]
	if err := c.Replace(context.Background(), snap); err == nil {
		t.Fatalf("expected error for misaligned snapshot")
	}
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	// An empty cache adopts the first entry's dimension.
	id, err := c.Append(ctx, Entry{Pattern: "hey", Tag: "greeting", Embedding: []float32{1, 0}})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == "" {
		t.Fatalf("Append returned empty id")
	}
	if _, err := c.Append(ctx, Entry{Pattern: "bad", Tag: "x", Embedding: []float32{1, 0, 0}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("Append wrong dimension err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := c.Append(ctx, Entry{Pattern: "yo", Tag: "greeting", Embedding: []float32{0, 1}}); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	snap, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, want := snap.Patterns, []string{"hey", "yo"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("patterns = %v, want %v", got, want)
	}
}

func TestAppendAfterReplace(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	if err := c.Replace(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if _, err := c.Append(ctx, Entry{Pattern: "hi", Tag: "greeting", Embedding: []float32{1}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("Append err = %v, want ErrDimensionMismatch", err)
	}
	if _, err := c.Append(ctx, Entry{Pattern: "later", Tag: "farewell", Embedding: []float32{0, 0.1, 1}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	snap, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Len() != 4 || snap.Patterns[3] != "later" || snap.Tags[3] != "farewell" {
		t.Fatalf("unexpected snapshot after append: %+v", snap)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	if err := c.Replace(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	n, err := c.RemovePattern(ctx, "greeting", "hello")
	if err != nil || n != 1 {
		t.Fatalf("RemovePattern = %d, %v; want 1, nil", n, err)
	}
	n, err = c.RemoveTag(ctx, "missing")
	if err != nil || n != 0 {
		t.Fatalf("RemoveTag(missing) = %d, %v; want 0, nil", n, err)
	}
	snap, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got, want := snap.Patterns, []string{"hi there", "goodbye"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("patterns = %v, want %v", got, want)
	}

	n, err = c.RemoveTag(ctx, "farewell")
	if err != nil || n != 1 {
		t.Fatalf("RemoveTag = %d, %v; want 1, nil", n, err)
	}
	entries, err := c.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if err := c.Remove(ctx, entries[0].ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	snap, err = c.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Len() != 0 {
		t.Fatalf("expected empty cache, got %d rows", snap.Len())
	}
}

func TestNearest(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	if err := c.Replace(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	matches, err := c.Nearest(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Pattern != "hello" || matches[0].Tag != "greeting" {
		t.Fatalf("unexpected best match: %+v", matches[0])
	}
	if matches[0].Score < 0.999 || matches[1].Score >= matches[0].Score {
		t.Fatalf("unexpected scores: %+v", matches)
	}

	all, err := c.Nearest(ctx, []float32{0, 0, 1}, 0)
	if err != nil {
		t.Fatalf("Nearest(k=0) failed: %v", err)
	}
	if len(all) != 3 || all[0].Pattern != "goodbye" {
		t.Fatalf("unexpected unlimited result: %+v", all)
	}
}

func TestModelNameAndHistory(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	name, err := c.ModelName(ctx)
	if err != nil || name != "" {
		t.Fatalf("ModelName on fresh cache = %q, %v", name, err)
	}
	if err := c.Replace(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if name, _ = c.ModelName(ctx); name != "all-minilm" {
		t.Fatalf("ModelName = %q, want all-minilm", name)
	}
	if err := c.SetModelName(ctx, "nomic-embed-text"); err != nil {
		t.Fatalf("SetModelName failed: %v", err)
	}
	if name, _ = c.ModelName(ctx); name != "nomic-embed-text" {
		t.Fatalf("ModelName = %q after SetModelName", name)
	}

	if _, err := c.RemoveTag(ctx, "farewell"); err != nil {
		t.Fatalf("RemoveTag failed: %v", err)
	}
	history, err := c.History(ctx, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(history))
	}
	if history[0].Op != "delete" {
		t.Fatalf("newest op = %q, want delete", history[0].Op)
	}
	payload, err := history[0].Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if payload.Pattern != "goodbye" || payload.Tag != "farewell" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	for i := 1; i < len(history); i++ {
		if history[i].SCN >= history[i-1].SCN {
			t.Fatalf("history not newest first: %+v", history)
		}
	}

	latest, err := c.History(ctx, 1)
	if err != nil || len(latest) != 1 {
		t.Fatalf("History(1) = %d entries, %v", len(latest), err)
	}
}
