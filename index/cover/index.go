// Package cover provides a cover-tree backed vector index for large pattern
// sets. Rows are indexed by their L2-normalised vectors under Euclidean
// distance, which ranks exactly like cosine similarity while keeping the
// triangle inequality the tree prunes with.
package cover

import (
	"fmt"
	"sort"

	"github.com/viant/intentbot/index"
	"github.com/viant/intentbot/internal/cover/tree"
	"github.com/viant/intentbot/vector"
)

// BoundStrategy selects the pruning radius used during search.
type BoundStrategy = tree.BoundStrategy

// DistanceFunction names the tree metric.
type DistanceFunction = tree.DistanceFunction

const (
	BoundPerNode = tree.BoundPerNode
	BoundLevel   = tree.BoundLevel

	DistanceFunctionCosine    = tree.DistanceFunctionCosine
	DistanceFunctionEuclidean = tree.DistanceFunctionEuclidean
)

// Option customises an Index.
type Option func(*Index)

// WithBase sets the cover tree base; values <= 1 keep the default 1.3.
func WithBase(base float32) Option { return func(i *Index) { i.base = base } }

// WithBoundStrategy selects the pruning bound.
func WithBoundStrategy(s BoundStrategy) Option { return func(i *Index) { i.bound = s } }

// WithDistance selects the tree metric.
func WithDistance(d DistanceFunction) Option { return func(i *Index) { i.distance = d } }

// Index implements index.Index on top of a cover tree.
type Index struct {
	base     float32
	bound    BoundStrategy
	distance DistanceFunction
	tree     *tree.Tree
	vecs     [][]float32
	dim      int
}

// New returns an empty cover index.
func New(opts ...Option) *Index {
	i := &Index{base: 1.3, bound: BoundPerNode, distance: DistanceFunctionEuclidean}
	for _, opt := range opts {
		opt(i)
	}
	i.reset()
	return i
}

func (i *Index) reset() {
	i.tree = tree.NewTree(i.base, i.distance)
	i.tree.SetBoundStrategy(i.bound)
	i.vecs = nil
	i.dim = 0
}

// Build rebuilds the tree from vectors.
func (i *Index) Build(vectors [][]float32) error {
	if len(vectors) > 0 {
		dim := len(vectors[0])
		for j := range vectors {
			if len(vectors[j]) != dim {
				return fmt.Errorf("cover: inconsistent vector dims %d vs %d at row %d", len(vectors[j]), dim, j)
			}
		}
	}
	i.reset()
	for _, v := range vectors {
		if _, err := i.Add(v); err != nil {
			return err
		}
	}
	return nil
}

// Add inserts one vector. Zero vectors keep their row but are never returned.
func (i *Index) Add(vec []float32) (int, error) {
	if len(vec) == 0 {
		return 0, fmt.Errorf("cover: empty vector")
	}
	if i.dim == 0 {
		i.dim = len(vec)
	} else if len(vec) != i.dim {
		return 0, fmt.Errorf("cover: vector dim %d != index dim %d", len(vec), i.dim)
	}
	row := len(i.vecs)
	i.vecs = append(i.vecs, vec)
	if unit := normalize(vec); unit != nil {
		i.tree.Insert(tree.NewPoint(row, unit))
	}
	return row, nil
}

// Query returns up to k rows by decreasing cosine similarity.
func (i *Index) Query(query []float32, k int) ([]index.Hit, error) {
	if i.dim == 0 || i.tree.Len() == 0 {
		return nil, nil
	}
	if len(query) != i.dim {
		return nil, fmt.Errorf("cover: query dim %d != index dim %d", len(query), i.dim)
	}
	unit := normalize(query)
	if unit == nil {
		return nil, nil
	}
	if k <= 0 || k > i.tree.Len() {
		k = i.tree.Len()
	}
	neighbors := i.tree.KNearestNeighbors(tree.NewPoint(-1, unit), k)
	hits := make([]index.Hit, 0, len(neighbors))
	for _, n := range neighbors {
		score, err := vector.CosineSimilarity(query, i.vecs[n.Point.Row])
		if err != nil {
			continue
		}
		hits = append(hits, index.Hit{Row: n.Point.Row, Score: score})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Row < hits[b].Row
	})
	return hits, nil
}

// Len reports the number of rows, including zero vectors.
func (i *Index) Len() int { return len(i.vecs) }

func normalize(v []float32) []float32 {
	m := vector.Magnitude(v)
	if m == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for j, x := range v {
		out[j] = float32(float64(x) / m)
	}
	return out
}

var _ index.Index = (*Index)(nil)
