package index

import "fmt"

// DefaultCapacity is the node capacity used when a caller has no reason
// to pick another one.
const DefaultCapacity = 4

// PositionFunc reads the current position of a payload. When installed
// via UsePositions, the manager refreshes every registration from it at
// the start of each rebuild.
type PositionFunc[P comparable] func(P) Vec2

// Manager owns the registered-entity list, pooled wrapper lifecycle,
// wholesale index rebuilds and range queries.
//
// The registration list is the source of truth for tracked payloads; the
// quadtree is a derived cache of it, reconstructed wholesale by Rebuild
// rather than maintained incrementally. All methods mutate shared state
// in place and must not be called concurrently.
type Manager[P comparable] struct {
	root    *Node[*Entry[P]]
	entries []*Entry[P]
	pool    entryPool[P]
	posFn   PositionFunc[P]

	// Reusable query buffers; valid only until the next Query call.
	hits     []*Entry[P]
	payloads []P
}

// NewManager creates a manager indexing positions inside bounds.
// Non-positive capacity or a degenerate bounds rectangle is a
// configuration error: capacity <= 0 would force every insert to
// subdivide until floating-point precision bottoms out.
func NewManager[P comparable](bounds Rect, capacity int) (*Manager[P], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("index: node capacity must be positive, got %d", capacity)
	}
	if bounds.W <= 0 || bounds.H <= 0 {
		return nil, fmt.Errorf("index: bounds must have positive extent, got %gx%g", bounds.W, bounds.H)
	}

	return &Manager[P]{
		root: NewNode[*Entry[P]](bounds, capacity),
	}, nil
}

// UsePositions installs fn as the manager's position source. Hosts that
// own their entities' positions (server-authoritative) set this once so
// Rebuild picks up current positions without per-entity calls.
func (m *Manager[P]) UsePositions(fn PositionFunc[P]) {
	m.posFn = fn
}

// Register tracks payload at pos. A zero-value payload is silently
// ignored. The tree is untouched until the next Rebuild.
func (m *Manager[P]) Register(payload P, pos Vec2) {
	var zero P
	if payload == zero {
		return
	}
	m.entries = append(m.entries, m.pool.acquire(payload, pos))
}

// Unregister removes the first registration of payload, by identity, and
// recycles its wrapper. It reports whether a registration was found;
// unregistering an unknown payload is a no-op.
func (m *Manager[P]) Unregister(payload P) bool {
	for i, e := range m.entries {
		if e.payload == payload {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			m.pool.release(e)
			return true
		}
	}
	return false
}

// UnregisterAll removes every registration of payload and returns how
// many were removed. The scan runs back-to-front so removals cannot skip
// elements.
func (m *Manager[P]) UnregisterAll(payload P) int {
	removed := 0
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.payload == payload {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			m.pool.release(e)
			removed++
		}
	}
	return removed
}

// SetPosition updates the stored position of the first registration of
// payload, for hosts that push positions instead of installing a
// position source. It reports whether a registration was found.
func (m *Manager[P]) SetPosition(payload P, pos Vec2) bool {
	for _, e := range m.entries {
		if e.payload == payload {
			e.pos = pos
			return true
		}
	}
	return false
}

// Rebuild clears the tree and reinserts every registration in list
// order. Callers invoke this once per tick, after entity positions have
// settled. A registration whose position lies outside the root bounds is
// skipped by the tree (it stays in the list and reappears in queries
// once its position is back in bounds).
func (m *Manager[P]) Rebuild() {
	m.root.Clear()
	for _, e := range m.entries {
		if m.posFn != nil {
			e.pos = m.posFn(e.payload)
		}
		m.root.Insert(e)
	}
}

// Clear releases every registration back to the pool, empties the list
// and clears the tree. Used for full resets.
func (m *Manager[P]) Clear() {
	for _, e := range m.entries {
		m.pool.release(e)
	}
	m.entries = m.entries[:0]
	m.root.Clear()
}

// Query returns the payloads of every indexed registration whose
// position lies inside r, as of the last Rebuild.
//
// The returned slice is a reusable buffer, valid only until the next
// Query call. Callers retaining results across queries must copy them.
func (m *Manager[P]) Query(r Rect) []P {
	m.hits = m.hits[:0]
	m.root.Query(r, &m.hits)

	m.payloads = m.payloads[:0]
	for _, e := range m.hits {
		m.payloads = append(m.payloads, e.payload)
	}
	return m.payloads
}

// Len returns the number of current registrations.
func (m *Manager[P]) Len() int {
	return len(m.entries)
}

// Bounds returns the root boundary of the index.
func (m *Manager[P]) Bounds() Rect {
	return m.root.Boundary()
}

// Walk exposes the active tree's node boundaries, for debug rendering.
func (m *Manager[P]) Walk(visit func(boundary Rect, depth int)) {
	m.root.Walk(visit)
}

// Stats reports manager and tree statistics as of the last Rebuild.
type Stats struct {
	Registered int // registrations in the source-of-truth list
	Pooled     int // wrappers waiting in the freelist
	Tree       TreeStats
}

// Stats returns current statistics. Tree figures reflect the last
// Rebuild, not registrations made since.
func (m *Manager[P]) Stats() Stats {
	return Stats{
		Registered: len(m.entries),
		Pooled:     m.pool.size(),
		Tree:       m.root.Stats(),
	}
}
