package cover

import (
	"math"
	"math/rand"
	"testing"

	"github.com/viant/intentbot/index/bruteforce"
)

func randomVectors(r *rand.Rand, n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(r.NormFloat64())
		}
		out[i] = v
	}
	return out
}

// TestIndex_MatchesBruteForce checks that the cover tree returns the same
// best row as an exact scan.
func TestIndex_MatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	vecs := randomVectors(r, 300, 8)

	cov := New()
	if err := cov.Build(vecs); err != nil {
		t.Fatalf("cover Build failed: %v", err)
	}
	bf := bruteforce.New()
	if err := bf.Build(vecs); err != nil {
		t.Fatalf("bruteforce Build failed: %v", err)
	}
	for q, query := range randomVectors(r, 25, 8) {
		want, err := bf.Query(query, 1)
		if err != nil {
			t.Fatalf("bruteforce Query failed: %v", err)
		}
		got, err := cov.Query(query, 1)
		if err != nil {
			t.Fatalf("cover Query failed: %v", err)
		}
		if len(got) != 1 || got[0].Row != want[0].Row {
			t.Fatalf("query %d: cover = %v, brute = %v", q, got, want)
		}
		if math.Abs(got[0].Score-want[0].Score) > 1e-6 {
			t.Fatalf("query %d: score %v vs %v", q, got[0].Score, want[0].Score)
		}
	}
}

func TestIndex_AddAndQuery(t *testing.T) {
	idx := New(WithBase(2))
	for _, v := range [][]float32{{1, 0}, {0, 1}, {0, 0}, {-1, 0}} {
		if _, err := idx.Add(v); err != nil {
			t.Fatalf("Add(%v) failed: %v", v, err)
		}
	}
	if idx.Len() != 4 {
		t.Fatalf("Len = %d, want 4", idx.Len())
	}
	hits, err := idx.Query([]float32{0.2, 1}, 0)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	// the zero vector at row 2 is never returned
	if len(hits) != 3 {
		t.Fatalf("len(hits) = %d, want 3", len(hits))
	}
	if hits[0].Row != 1 {
		t.Fatalf("best row = %d, want 1", hits[0].Row)
	}
	if _, err := idx.Add([]float32{1, 2, 3}); err == nil {
		t.Fatalf("expected dimension error")
	}
}
