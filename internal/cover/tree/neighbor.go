package tree

import "container/heap"

// Neighbor is a kNN result: a point and its distance to the query.
type Neighbor struct {
	Point    *Point
	Distance float32
}

// candidates keeps the k closest neighbors seen so far in a max-heap, so the
// current worst is at index 0.
type candidates struct {
	k     int
	items []Neighbor
}

func newCandidates(k int) *candidates {
	return &candidates{k: k, items: make([]Neighbor, 0, k)}
}

func (c *candidates) Len() int           { return len(c.items) }
func (c *candidates) Less(i, j int) bool { return c.items[i].Distance > c.items[j].Distance }
func (c *candidates) Swap(i, j int)      { c.items[i], c.items[j] = c.items[j], c.items[i] }

func (c *candidates) Push(x interface{}) { c.items = append(c.items, x.(Neighbor)) }

func (c *candidates) Pop() interface{} {
	last := c.items[len(c.items)-1]
	c.items = c.items[:len(c.items)-1]
	return last
}

// full reports whether k candidates are held.
func (c *candidates) full() bool { return len(c.items) >= c.k }

// worst returns the largest distance held; only valid when non-empty.
func (c *candidates) worst() float32 { return c.items[0].Distance }

// offer keeps p when it is among the k closest so far. On equal distance the
// point with the lower row wins, so results are deterministic.
func (c *candidates) offer(p *Point, distance float32) {
	if !c.full() {
		heap.Push(c, Neighbor{Point: p, Distance: distance})
		return
	}
	top := c.items[0]
	if distance < top.Distance || (distance == top.Distance && p.Row < top.Point.Row) {
		c.items[0] = Neighbor{Point: p, Distance: distance}
		heap.Fix(c, 0)
	}
}

// sorted drains the heap into ascending distance order.
func (c *candidates) sorted() []*Neighbor {
	out := make([]*Neighbor, len(c.items))
	for i := len(out) - 1; i >= 0; i-- {
		n := heap.Pop(c).(Neighbor)
		out[i] = &n
	}
	return out
}
