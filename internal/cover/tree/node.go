package tree

import "math"

// Node is a cover-tree node. Every point in the subtree lies within radius
// of the node's point once radius has been computed for the current tree
// version.
type Node struct {
	level    int32
	scale    float32 // base^level
	point    *Point
	children []Node

	radius        float32
	radiusVersion uint64
}

func newNode(point *Point, level int32, base float32) Node {
	return Node{
		level: level,
		scale: float32(math.Pow(float64(base), float64(level))),
		point: point,
	}
}

// Point returns the point stored at the node.
func (n *Node) Point() *Point { return n.point }

// Level returns the node level.
func (n *Node) Level() int32 { return n.level }

func (n *Node) addChild(point *Point, base float32) {
	n.children = append(n.children, newNode(point, n.level-1, base))
}
