package bruteforce

import (
	"fmt"
	"math"
	"sort"

	"github.com/viant/intentbot/index"
	"github.com/viant/intentbot/vector"
)

// Index is a brute-force vector index implementing cosine similarity.
type Index struct {
	vecs [][]float32
	mags []float64
	dim  int
}

// New returns an empty index.
func New() *Index { return &Index{} }

// Build loads vectors and precomputes magnitudes.
func (i *Index) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		i.vecs, i.mags, i.dim = nil, nil, 0
		return nil
	}
	dim := len(vectors[0])
	for j := range vectors {
		if len(vectors[j]) != dim {
			return fmt.Errorf("bruteforce: inconsistent vector dims %d vs %d at row %d", len(vectors[j]), dim, j)
		}
	}
	mags := make([]float64, len(vectors))
	for j := range vectors {
		mags[j] = vector.Magnitude(vectors[j])
	}
	i.vecs = append([][]float32(nil), vectors...)
	i.mags = mags
	i.dim = dim
	return nil
}

// Add appends one vector; the first vector fixes the index dimension.
func (i *Index) Add(vec []float32) (int, error) {
	if len(vec) == 0 {
		return 0, fmt.Errorf("bruteforce: empty vector")
	}
	if i.dim == 0 {
		i.dim = len(vec)
	} else if len(vec) != i.dim {
		return 0, fmt.Errorf("bruteforce: vector dim %d != index dim %d", len(vec), i.dim)
	}
	i.vecs = append(i.vecs, vec)
	i.mags = append(i.mags, vector.Magnitude(vec))
	return len(i.vecs) - 1, nil
}

// Query returns top-k by cosine similarity. Equal scores keep row order, so
// the best hit is the lowest row among ties.
func (i *Index) Query(query []float32, k int) ([]index.Hit, error) {
	if i.dim == 0 || len(i.vecs) == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("bruteforce: query dim %d != index dim %d", len(query), i.dim)
	}
	qm := vector.Magnitude(query)
	if qm == 0 {
		return nil, nil
	}
	hits := make([]index.Hit, 0, len(i.vecs))
	for j := range i.vecs {
		if i.mags[j] == 0 {
			continue
		}
		s := vector.Dot(query, i.vecs[j]) / (qm * i.mags[j])
		if math.IsNaN(s) {
			continue
		}
		hits = append(hits, index.Hit{Row: j, Score: s})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports the number of rows.
func (i *Index) Len() int { return len(i.vecs) }

var _ index.Index = (*Index)(nil)
