// Package index provides a point quadtree for 2D range queries, plus a
// management layer that owns entity registration, pooled wrapper reuse,
// and wholesale index rebuilds once per simulation tick.
//
// The index is deliberately single-threaded: the registration list, the
// wrapper pool and the tree are all mutated in place without locking.
// The caller owns call ordering (rebuild before query after positions
// change) and must treat query results as transient.
package index

// Vec2 is a 2D position value.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
//
// Containment is half-open: a point is inside iff X <= px < X+W and
// Y <= py < Y+H. Insert and Query share this convention, so a point on
// an internal split line always lands in exactly one quadrant. The only
// unreachable positions are those on the right/bottom edge of the root
// bounds, which are rejected at the root.
type Rect struct {
	X, Y float64
	W, H float64
}

// Contains reports whether p lies inside r under the half-open convention.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X < r.X+r.W &&
		p.Y >= r.Y && p.Y < r.Y+r.H
}

// Overlaps reports whether r and o share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Positioned is the minimal capability a value needs to be indexed.
type Positioned interface {
	Pos() Vec2
}
