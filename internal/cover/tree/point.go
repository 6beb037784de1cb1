package tree

import "github.com/viant/vec/search"

// Point is a vector stored in the tree together with the row it came from.
// Query points use Row -1.
type Point struct {
	Row       int
	Magnitude float32
	Vector    []float32
}

// NewPoint constructs a point for the given row and caches its magnitude.
func NewPoint(row int, vector []float32) *Point {
	p := &Point{Row: row, Vector: vector}
	if len(vector) > 0 {
		p.Magnitude = search.Float32s(vector).Magnitude()
	}
	return p
}
