package index

import (
	"sort"
	"testing"
)

func newTestManager(t *testing.T) *Manager[string] {
	t.Helper()
	m, err := NewManager[string](Rect{0, 0, 100, 100}, 4)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

// TestNewManagerConfig verifies configuration validation at construction.
func TestNewManagerConfig(t *testing.T) {
	tests := []struct {
		name     string
		bounds   Rect
		capacity int
		wantErr  bool
	}{
		{"valid", Rect{0, 0, 100, 100}, DefaultCapacity, false},
		{"capacity one", Rect{0, 0, 100, 100}, 1, false},
		{"zero capacity", Rect{0, 0, 100, 100}, 0, true},
		{"negative capacity", Rect{0, 0, 100, 100}, -3, true},
		{"zero width", Rect{0, 0, 0, 100}, 4, true},
		{"negative height", Rect{0, 0, 100, -5}, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager[string](tt.bounds, tt.capacity)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewManager(%v, %d) error = %v, wantErr %v", tt.bounds, tt.capacity, err, tt.wantErr)
			}
		})
	}
}

// TestManagerRangeQueries runs the canonical register/rebuild/query
// round trip: five entities, capacity four, two query windows.
func TestManagerRangeQueries(t *testing.T) {
	m := newTestManager(t)

	m.Register("a", Vec2{1, 1})
	m.Register("b", Vec2{2, 2})
	m.Register("c", Vec2{3, 3})
	m.Register("d", Vec2{4, 4})
	m.Register("e", Vec2{50, 50})
	m.Rebuild()

	got := append([]string(nil), m.Query(Rect{0, 0, 10, 10})...)
	sort.Strings(got)
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("corner query returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("corner query returned %v, want %v", got, want)
		}
	}

	center := m.Query(Rect{40, 40, 20, 20})
	if len(center) != 1 || center[0] != "e" {
		t.Errorf("center query returned %v, want [e]", center)
	}
}

// TestRegisterZeroPayload verifies a zero-value payload is silently
// ignored.
func TestRegisterZeroPayload(t *testing.T) {
	m := newTestManager(t)

	m.Register("", Vec2{10, 10})
	if m.Len() != 0 {
		t.Errorf("Zero payload should not be registered, len = %d", m.Len())
	}

	mp, err := NewManager[*testPoint](Rect{0, 0, 100, 100}, 4)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	mp.Register(nil, Vec2{10, 10})
	if mp.Len() != 0 {
		t.Errorf("Nil payload should not be registered, len = %d", mp.Len())
	}
}

// TestUnregisterRemovesOneInstance verifies unregistering a payload that
// was registered twice removes exactly one registration.
func TestUnregisterRemovesOneInstance(t *testing.T) {
	m := newTestManager(t)

	m.Register("A", Vec2{5, 5})
	m.Register("A", Vec2{5, 5})

	if !m.Unregister("A") {
		t.Fatal("Unregister should find a registration")
	}
	if m.Len() != 1 {
		t.Fatalf("Expected 1 registration left, got %d", m.Len())
	}

	m.Rebuild()
	hits := m.Query(Rect{0, 0, 100, 100})
	if len(hits) != 1 || hits[0] != "A" {
		t.Errorf("Expected exactly one A in query results, got %v", hits)
	}
}

// TestUnregisterUnknown verifies unregistering a never-registered
// payload is a silent no-op.
func TestUnregisterUnknown(t *testing.T) {
	m := newTestManager(t)
	m.Register("A", Vec2{5, 5})

	if m.Unregister("B") {
		t.Error("Unregister of unknown payload should return false")
	}
	if m.Len() != 1 {
		t.Errorf("No-op unregister should not change the list, len = %d", m.Len())
	}
}

// TestUnregisterAll verifies every registration of a payload is removed
// even when registrations interleave.
func TestUnregisterAll(t *testing.T) {
	m := newTestManager(t)

	m.Register("A", Vec2{1, 1})
	m.Register("B", Vec2{2, 2})
	m.Register("A", Vec2{3, 3})
	m.Register("A", Vec2{4, 4})
	m.Register("B", Vec2{5, 5})

	if n := m.UnregisterAll("A"); n != 3 {
		t.Errorf("UnregisterAll should remove 3, removed %d", n)
	}
	if m.Len() != 2 {
		t.Errorf("Expected 2 registrations left, got %d", m.Len())
	}

	m.Rebuild()
	for _, p := range m.Query(Rect{0, 0, 100, 100}) {
		if p == "A" {
			t.Error("A should not appear in query results after UnregisterAll")
		}
	}
}

// TestPoolRecycling verifies wrappers are recycled LIFO and their
// payload reference is reassigned on reuse.
func TestPoolRecycling(t *testing.T) {
	m := newTestManager(t)

	m.Register("A", Vec2{5, 5})
	first := m.entries[0]

	m.Unregister("A")
	if m.Len() != 0 {
		t.Fatalf("Expected empty list after unregister, got %d", m.Len())
	}
	if m.pool.size() != 1 {
		t.Fatalf("Expected 1 pooled wrapper, got %d", m.pool.size())
	}
	if first.payload != "" {
		t.Error("Released wrapper should not pin its former payload")
	}

	m.Register("B", Vec2{9, 9})
	if m.pool.size() != 0 {
		t.Errorf("Registration should reuse the pooled wrapper, pool size %d", m.pool.size())
	}
	if m.entries[0] != first {
		t.Error("Expected the recycled wrapper to back the new registration")
	}
	if first.payload != "B" || first.pos != (Vec2{9, 9}) {
		t.Errorf("Recycled wrapper not reset: payload=%q pos=%v", first.payload, first.pos)
	}
}

// TestRebuildIdempotent verifies back-to-back rebuilds with no
// registration change yield identical query results.
func TestRebuildIdempotent(t *testing.T) {
	m := newTestManager(t)
	m.Register("a", Vec2{10, 10})
	m.Register("b", Vec2{20, 80})
	m.Register("c", Vec2{70, 30})
	m.Register("d", Vec2{90, 90})
	m.Register("e", Vec2{15, 15})

	m.Rebuild()
	first := append([]string(nil), m.Query(Rect{5, 5, 30, 30})...)

	m.Rebuild()
	second := append([]string(nil), m.Query(Rect{5, 5, 30, 30})...)

	sort.Strings(first)
	sort.Strings(second)
	if len(first) != len(second) {
		t.Fatalf("Rebuild changed result count: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Rebuild changed results: %v vs %v", first, second)
		}
	}
}

// TestQueryBufferReuse verifies consecutive queries share the same
// reusable buffer, per the transient-results contract.
func TestQueryBufferReuse(t *testing.T) {
	m := newTestManager(t)
	m.Register("a", Vec2{10, 10})
	m.Register("b", Vec2{60, 60})
	m.Rebuild()

	first := m.Query(Rect{0, 0, 100, 100})
	if len(first) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(first))
	}

	second := m.Query(Rect{50, 50, 50, 50})
	if len(second) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(second))
	}
	if &first[0] != &second[0] {
		t.Error("Expected queries to share one reusable buffer")
	}
}

// TestQueryEmptyIndex verifies querying a never-built index returns an
// empty result, not an error.
func TestQueryEmptyIndex(t *testing.T) {
	m := newTestManager(t)
	if got := m.Query(Rect{0, 0, 100, 100}); len(got) != 0 {
		t.Errorf("Empty index query returned %v", got)
	}
}

// TestStaleUntilRebuild verifies registrations do not appear in queries
// until a rebuild runs.
func TestStaleUntilRebuild(t *testing.T) {
	m := newTestManager(t)
	m.Register("a", Vec2{10, 10})

	if got := m.Query(Rect{0, 0, 100, 100}); len(got) != 0 {
		t.Errorf("Registration should be invisible before rebuild, got %v", got)
	}

	m.Rebuild()
	if got := m.Query(Rect{0, 0, 100, 100}); len(got) != 1 {
		t.Errorf("Expected 1 result after rebuild, got %v", got)
	}
}

// TestSetPosition verifies pushed position updates take effect on the
// next rebuild.
func TestSetPosition(t *testing.T) {
	m := newTestManager(t)
	m.Register("a", Vec2{10, 10})
	m.Rebuild()

	if !m.SetPosition("a", Vec2{80, 80}) {
		t.Fatal("SetPosition should find the registration")
	}
	if m.SetPosition("ghost", Vec2{1, 1}) {
		t.Error("SetPosition on unknown payload should return false")
	}

	// Old position still indexed until rebuild
	if got := m.Query(Rect{70, 70, 20, 20}); len(got) != 0 {
		t.Errorf("Position update should not be visible before rebuild, got %v", got)
	}

	m.Rebuild()
	if got := m.Query(Rect{70, 70, 20, 20}); len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected a at new position, got %v", got)
	}
}

// TestUsePositions verifies the installed position source refreshes
// wrapper positions at rebuild time.
func TestUsePositions(t *testing.T) {
	type agent struct{ x, y float64 }

	m, err := NewManager[*agent](Rect{0, 0, 100, 100}, 4)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	m.UsePositions(func(a *agent) Vec2 { return Vec2{a.x, a.y} })

	a := &agent{x: 10, y: 10}
	m.Register(a, Vec2{a.x, a.y})
	m.Rebuild()

	a.x, a.y = 90, 90
	m.Rebuild()

	got := m.Query(Rect{85, 85, 10, 10})
	if len(got) != 1 || got[0] != a {
		t.Errorf("Expected agent at refreshed position, got %v", got)
	}
}

// TestOutOfBoundsRegistrationStaysListed verifies an out-of-bounds
// position keeps its registration but is absent from queries until it
// moves back inside.
func TestOutOfBoundsRegistrationStaysListed(t *testing.T) {
	m := newTestManager(t)
	m.Register("far", Vec2{500, 500})
	m.Rebuild()

	if m.Len() != 1 {
		t.Errorf("Out-of-bounds registration should stay listed, len = %d", m.Len())
	}
	if got := m.Query(Rect{0, 0, 100, 100}); len(got) != 0 {
		t.Errorf("Out-of-bounds registration should not be indexed, got %v", got)
	}

	m.SetPosition("far", Vec2{50, 50})
	m.Rebuild()
	if got := m.Query(Rect{0, 0, 100, 100}); len(got) != 1 {
		t.Errorf("Expected registration back in the index, got %v", got)
	}
}

// TestClear verifies a full reset recycles every wrapper and empties the
// tree.
func TestClear(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 8; i++ {
		m.Register(string(rune('a'+i)), Vec2{float64(i * 10), float64(i * 10)})
	}
	m.Rebuild()

	m.Clear()

	if m.Len() != 0 {
		t.Errorf("Expected empty list after Clear, got %d", m.Len())
	}
	if m.pool.size() != 8 {
		t.Errorf("Expected 8 pooled wrappers, got %d", m.pool.size())
	}
	if got := m.Query(Rect{0, 0, 100, 100}); len(got) != 0 {
		t.Errorf("Expected empty query after Clear, got %v", got)
	}
}

// TestManagerStats verifies registration, pool and tree accounting.
func TestManagerStats(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 6; i++ {
		m.Register(string(rune('a'+i)), Vec2{float64(10 + i*15), 50})
	}
	m.Unregister("a")
	m.Rebuild()

	s := m.Stats()
	if s.Registered != 5 {
		t.Errorf("Expected 5 registered, got %d", s.Registered)
	}
	if s.Pooled != 1 {
		t.Errorf("Expected 1 pooled, got %d", s.Pooled)
	}
	if s.Tree.Items != 5 {
		t.Errorf("Expected 5 items in tree, got %d", s.Tree.Items)
	}
}
