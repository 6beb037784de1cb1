package tree

// This implementation is adapted from github.com/viant/gds/tree/cover.

import (
	"math"
	"sort"
	"sync"
)

// Tree is a cover tree answering kNN queries over row-tagged points.
type Tree struct {
	root          *Node
	base          float32
	distanceFunc  DistanceFunc
	size          int
	version       uint64
	boundStrategy BoundStrategy
	mu            sync.RWMutex
}

// BoundStrategy selects which lower-bound radius to use when pruning.
type BoundStrategy int

const (
	// BoundPerNode uses cached per-node subtree radius (tighter pruning).
	BoundPerNode BoundStrategy = iota
	// BoundLevel uses a geometric bound derived from the node level.
	BoundLevel
)

// NewTree constructs a cover tree with the provided base and distance metric.
// An unknown metric falls back to Euclidean.
func NewTree(base float32, distanceFn DistanceFunction) *Tree {
	if base <= 1 {
		base = 1.3
	}
	fn := distanceFn.Function()
	if fn == nil {
		fn = EuclideanDistance
	}
	return &Tree{
		base:          base,
		distanceFunc:  fn,
		boundStrategy: BoundPerNode,
	}
}

// SetBoundStrategy switches the pruning strategy.
func (t *Tree) SetBoundStrategy(s BoundStrategy) {
	t.mu.Lock()
	t.boundStrategy = s
	t.mu.Unlock()
}

// Len reports the number of inserted points.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Insert adds a point to the tree.
func (t *Tree) Insert(point *Point) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		root := newNode(point, 0, t.base)
		t.root = &root
	} else {
		t.insert(t.root, point, 0)
	}
	t.size++
	t.version++
}

func (t *Tree) insert(node *Node, point *Point, level int32) {
	for {
		scale := float32(math.Pow(float64(t.base), float64(level)))
		if t.distanceFunc(point, node.point) < scale {
			var next *Node
			for i := range node.children {
				if t.distanceFunc(point, node.children[i].point) < scale {
					next = &node.children[i]
					break
				}
			}
			if next == nil {
				node.addChild(point, t.base)
				return
			}
			node = next
			level--
			continue
		}
		level++
		if level > node.level {
			root := newNode(point, level, t.base)
			root.children = append(root.children, *t.root)
			t.root = &root
			return
		}
	}
}

// KNearestNeighbors runs a depth-first kNN search and returns neighbours
// ordered by increasing distance.
func (t *Tree) KNearestNeighbors(point *Point, k int) []*Neighbor {
	// per-node radii are computed lazily, which writes to the nodes
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil || k <= 0 {
		return nil
	}
	best := newCandidates(k)
	t.search(t.root, point, best)
	return best.sorted()
}

func (t *Tree) search(node *Node, point *Point, best *candidates) {
	best.offer(node.point, t.distanceFunc(point, node.point))
	if len(node.children) == 0 {
		return
	}
	type childDist struct {
		child *Node
		dist  float32
	}
	cds := make([]childDist, 0, len(node.children))
	for i := range node.children {
		child := &node.children[i]
		cds = append(cds, childDist{child: child, dist: t.distanceFunc(point, child.point)})
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	for _, cd := range cds {
		if best.full() && cd.dist-t.boundRadius(cd.child) > best.worst() {
			continue
		}
		t.search(cd.child, point, best)
	}
}

func (t *Tree) ensureRadius(n *Node) float32 {
	if n == nil {
		return 0
	}
	if n.radiusVersion == t.version {
		return n.radius
	}
	maxR := float32(0)
	for i := range n.children {
		child := &n.children[i]
		d := t.distanceFunc(n.point, child.point) + t.ensureRadius(child)
		if d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	n.radiusVersion = t.version
	return maxR
}

func (t *Tree) levelCoverRadius(n *Node) float32 {
	if t.base <= 1 || n == nil {
		return float32(math.MaxFloat32)
	}
	return n.scale * t.base / (t.base - 1)
}

func (t *Tree) boundRadius(n *Node) float32 {
	if t.boundStrategy == BoundLevel {
		return t.levelCoverRadius(n)
	}
	return t.ensureRadius(n)
}
