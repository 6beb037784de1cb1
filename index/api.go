package index

// Hit is a single kNN result. Row is the position of the matched vector in
// insertion order; Score is its cosine similarity to the query, so higher is
// more similar.
type Hit struct {
	Row   int
	Score float64
}

// Index defines a vector index that can be built in bulk, grown one vector
// at a time, and queried for the k most similar rows.
type Index interface {
	// Build replaces the index content with vectors; row i is vectors[i].
	// All vectors must share one dimension.
	Build(vectors [][]float32) error

	// Add appends a vector and returns its row.
	Add(vector []float32) (int, error)

	// Query returns up to k hits ordered by decreasing score. When k <= 0
	// every scorable row is returned.
	Query(query []float32, k int) ([]Hit, error)

	// Len reports the number of rows.
	Len() int
}

// Index kinds accepted by ResolveKind.
const (
	KindAuto  = "auto"
	KindBrute = "brute"
	KindCover = "cover"
)

const (
	autoCoverMinDocs            = 4000
	autoCoverMinDim             = 64
	autoCoverMinDensity float64 = 16
)

// ResolveKind maps a configured kind to a concrete implementation. "auto"
// selects the cover tree only for large, dense datasets where a scan stops
// being cheap; everything else uses brute force.
func ResolveKind(kind string, size, dim int) string {
	switch kind {
	case KindBrute, KindCover:
		return kind
	}
	if size >= autoCoverMinDocs && dim >= autoCoverMinDim {
		if float64(size)/float64(dim) >= autoCoverMinDensity {
			return KindCover
		}
	}
	return KindBrute
}
