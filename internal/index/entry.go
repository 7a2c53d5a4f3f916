package index

// Entry adapts an arbitrary payload to the Positioned capability the
// quadtree needs, pairing an opaque payload reference with a position
// snapshot. The entry never owns the payload: the host must guarantee
// the payload outlives its registration.
//
// An entry is owned by exactly one of the manager's registration list or
// the pool at any instant, and is mutated in place when recycled.
type Entry[P comparable] struct {
	payload P
	pos     Vec2
}

// Payload returns the wrapped payload reference.
func (e *Entry[P]) Payload() P {
	return e.payload
}

// Pos returns the position snapshot taken at registration or at the last
// rebuild refresh.
func (e *Entry[P]) Pos() Vec2 {
	return e.pos
}

func (e *Entry[P]) reset(payload P, pos Vec2) {
	e.payload = payload
	e.pos = pos
}

// entryPool is a LIFO freelist of entries, recycled across register and
// unregister cycles to avoid per-tick allocation churn. LIFO keeps the
// most recently touched entry hot in cache.
type entryPool[P comparable] struct {
	free []*Entry[P]
}

// acquire pops a recycled entry, or allocates one the first time the
// pool runs dry.
func (p *entryPool[P]) acquire(payload P, pos Vec2) *Entry[P] {
	if n := len(p.free); n > 0 {
		e := p.free[n-1]
		p.free = p.free[:n-1]
		e.reset(payload, pos)
		return e
	}
	return &Entry[P]{payload: payload, pos: pos}
}

// release returns an entry to the pool. The caller must not dereference
// the entry afterwards; its former payload reference is cleared so the
// pool does not pin it.
func (p *entryPool[P]) release(e *Entry[P]) {
	var zero P
	e.payload = zero
	p.free = append(p.free, e)
}

// size returns the number of entries waiting for reuse.
func (p *entryPool[P]) size() int {
	return len(p.free)
}
