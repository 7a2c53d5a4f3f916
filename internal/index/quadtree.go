package index

// Node is a quadtree node covering a rectangular boundary. A node either
// stores items directly (divided == false) or delegates entirely to its
// four equal quadrants (divided == true, items empty) — never both.
//
// Child nodes are created on the first subdivision and then kept for the
// lifetime of the tree: Clear resets the logical state but leaves the
// subtree allocated, so the per-tick rebuild reuses nodes instead of
// reallocating them.
type Node[T Positioned] struct {
	boundary Rect
	capacity int
	items    []T
	divided  bool

	nw, ne, sw, se *Node[T]
}

// NewNode creates an empty quadtree node. capacity is the number of
// items a node holds before it subdivides and must be positive.
func NewNode[T Positioned](boundary Rect, capacity int) *Node[T] {
	return &Node[T]{
		boundary: boundary,
		capacity: capacity,
		items:    make([]T, 0, capacity),
	}
}

// Boundary returns the area this node covers.
func (n *Node[T]) Boundary() Rect {
	return n.boundary
}

// Insert places item into this node or one of its descendants. It
// returns false, without mutating the tree, when the item's position is
// outside the node boundary; this is how sibling quadrants reject items
// during recursive insertion.
func (n *Node[T]) Insert(item T) bool {
	if !n.boundary.Contains(item.Pos()) {
		return false
	}

	if !n.divided {
		if len(n.items) < n.capacity {
			n.items = append(n.items, item)
			return true
		}
		n.subdivide()
	}

	return n.insertIntoChild(item)
}

// insertIntoChild delegates to the children in fixed order. With the
// half-open containment convention exactly one child accepts any point
// inside the node boundary.
func (n *Node[T]) insertIntoChild(item T) bool {
	return n.nw.Insert(item) ||
		n.ne.Insert(item) ||
		n.sw.Insert(item) ||
		n.se.Insert(item)
}

// subdivide splits the boundary into four equal quadrants and migrates
// every locally stored item into the matching child. Children from a
// previous life of this node (see Clear) are reused as-is.
func (n *Node[T]) subdivide() {
	if n.nw == nil {
		halfW := n.boundary.W / 2
		halfH := n.boundary.H / 2
		midX := n.boundary.X + halfW
		midY := n.boundary.Y + halfH

		n.nw = NewNode[T](Rect{n.boundary.X, n.boundary.Y, halfW, halfH}, n.capacity)
		n.ne = NewNode[T](Rect{midX, n.boundary.Y, halfW, halfH}, n.capacity)
		n.sw = NewNode[T](Rect{n.boundary.X, midY, halfW, halfH}, n.capacity)
		n.se = NewNode[T](Rect{midX, midY, halfW, halfH}, n.capacity)
	}
	n.divided = true

	for _, item := range n.items {
		n.insertIntoChild(item)
	}
	n.items = n.items[:0]
}

// Query appends to out every stored item whose position lies inside r.
// Subtrees whose boundary does not overlap r are pruned. No ordering is
// guaranteed across children or within a node's item list.
func (n *Node[T]) Query(r Rect, out *[]T) {
	if !n.boundary.Overlaps(r) {
		return
	}

	if !n.divided {
		for _, item := range n.items {
			if r.Contains(item.Pos()) {
				*out = append(*out, item)
			}
		}
		return
	}

	n.nw.Query(r, out)
	n.ne.Query(r, out)
	n.sw.Query(r, out)
	n.se.Query(r, out)
}

// Clear empties the node and its descendants without releasing child
// nodes, keeping their memory for the next rebuild's subdivisions.
func (n *Node[T]) Clear() {
	n.items = n.items[:0]
	if n.divided {
		n.nw.Clear()
		n.ne.Clear()
		n.sw.Clear()
		n.se.Clear()
	}
	n.divided = false
}

// Walk visits the boundary of every active node (this node plus, for
// divided nodes, the active descendants). Used by the debug renderer.
func (n *Node[T]) Walk(visit func(boundary Rect, depth int)) {
	n.walk(visit, 0)
}

func (n *Node[T]) walk(visit func(Rect, int), depth int) {
	visit(n.boundary, depth)
	if n.divided {
		n.nw.walk(visit, depth+1)
		n.ne.walk(visit, depth+1)
		n.sw.walk(visit, depth+1)
		n.se.walk(visit, depth+1)
	}
}

// TreeStats contains tree shape statistics for debugging and metrics.
type TreeStats struct {
	Nodes     int // active nodes (divided interior + leaves)
	Leaves    int // active undivided nodes
	Items     int // items currently inserted
	MaxDepth  int // deepest active node, root = 0
	MaxInLeaf int // largest item count in a single leaf
}

// Stats walks the active tree and returns its shape statistics.
func (n *Node[T]) Stats() TreeStats {
	var s TreeStats
	n.stats(&s, 0)
	return s
}

func (n *Node[T]) stats(s *TreeStats, depth int) {
	s.Nodes++
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}

	if !n.divided {
		s.Leaves++
		s.Items += len(n.items)
		if len(n.items) > s.MaxInLeaf {
			s.MaxInLeaf = len(n.items)
		}
		return
	}

	n.nw.stats(s, depth+1)
	n.ne.stats(s, depth+1)
	n.sw.stats(s, depth+1)
	n.se.stats(s, depth+1)
}
