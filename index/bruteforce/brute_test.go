package bruteforce

import (
	"math"
	"testing"
)

func TestIndex_Query(t *testing.T) {
	idx := New()
	if err := idx.Build([][]float32{{1, 0}, {0, 1}, {1, 1}}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	hits, err := idx.Query([]float32{1, 0.1}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].Row != 0 || hits[1].Row != 2 {
		t.Fatalf("rows = [%d %d], want [0 2]", hits[0].Row, hits[1].Row)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores not descending: %v", hits)
	}
}

func TestIndex_QueryAllAndTies(t *testing.T) {
	idx := New()
	if err := idx.Build([][]float32{{0, 1}, {2, 0}, {1, 0}, {0, 0}}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	hits, err := idx.Query([]float32{1, 0}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	// zero-magnitude row 3 is skipped
	if len(hits) != 3 {
		t.Fatalf("len(hits) = %d, want 3", len(hits))
	}
	// rows 1 and 2 both score 1; the lower row wins the tie
	if hits[0].Row != 1 || hits[1].Row != 2 {
		t.Fatalf("tie order = [%d %d], want [1 2]", hits[0].Row, hits[1].Row)
	}
	if math.Abs(hits[0].Score-1) > 1e-9 {
		t.Fatalf("top score = %v, want 1", hits[0].Score)
	}
}

func TestIndex_Add(t *testing.T) {
	idx := New()
	row, err := idx.Add([]float32{1, 0})
	if err != nil || row != 0 {
		t.Fatalf("Add = %d, %v; want 0, nil", row, err)
	}
	row, err = idx.Add([]float32{0, 1})
	if err != nil || row != 1 {
		t.Fatalf("Add = %d, %v; want 1, nil", row, err)
	}
	if _, err := idx.Add([]float32{1, 2, 3}); err == nil {
		t.Fatalf("expected dimension error")
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}
	hits, err := idx.Query([]float32{0, 3}, 1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 1 || hits[0].Row != 1 {
		t.Fatalf("hits = %v, want row 1", hits)
	}
}

func TestIndex_EmptyAndErrors(t *testing.T) {
	idx := New()
	hits, err := idx.Query([]float32{1}, 1)
	if err != nil || hits != nil {
		t.Fatalf("empty Query = %v, %v; want nil, nil", hits, err)
	}
	if err := idx.Build([][]float32{{1, 0}, {1}}); err == nil {
		t.Fatalf("expected inconsistent dims error")
	}
	if err := idx.Build([][]float32{{1, 0}}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, err := idx.Query([]float32{1, 0, 0}, 1); err == nil {
		t.Fatalf("expected query dim error")
	}
	if hits, err := idx.Query([]float32{0, 0}, 1); err != nil || hits != nil {
		t.Fatalf("zero query = %v, %v; want nil, nil", hits, err)
	}
}
