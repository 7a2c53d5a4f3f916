// Package sim hosts the agent simulation loop that drives the spatial
// index: one rebuild per tick, then a neighbor range query per agent.
package sim

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"quad-arena/internal/index"
)

// Config holds the engine parameters. Validate happens in NewEngine.
type Config struct {
	WorldWidth  float64
	WorldHeight float64
	TickRate    int // ticks per second

	NodeCapacity   int     // quadtree node capacity
	DetectionRange float64 // side length of the per-agent neighbor window
	MaxAgents      int     // hard cap on spawned agents

	Seed int64 // RNG seed; 0 picks the current time
}

// TickInfo is passed to the tick observer after each completed tick.
type TickInfo struct {
	Tick     int64
	Elapsed  time.Duration
	Agents   int
	IndexOps index.Stats
}

// Engine runs the simulation loop. The engine mutex owns the call
// ordering into the single-threaded index: spawn, remove, rebuild and
// query all run under it.
type Engine struct {
	mu         sync.RWMutex
	agents     map[string]*Agent
	agentSlice []*Agent // reused each tick to avoid allocation
	idx        *index.Manager[*Agent]
	cfg        Config

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}

	tickCount int64
	nextID    int
	rng       *rand.Rand

	onTick func(TickInfo)
}

// NewEngine creates a stopped engine. Index configuration errors
// (non-positive capacity or world extent) surface here.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("sim: tick rate must be positive, got %d", cfg.TickRate)
	}
	if cfg.MaxAgents <= 0 {
		return nil, fmt.Errorf("sim: max agents must be positive, got %d", cfg.MaxAgents)
	}
	if cfg.DetectionRange <= 0 {
		cfg.DetectionRange = 100
	}

	idx, err := index.NewManager[*Agent](index.Rect{X: 0, Y: 0, W: cfg.WorldWidth, H: cfg.WorldHeight}, cfg.NodeCapacity)
	if err != nil {
		return nil, err
	}
	// The engine owns agent positions, so the index reads them back at
	// rebuild time instead of being fed per-entity updates.
	idx.UsePositions(func(a *Agent) index.Vec2 {
		return index.Vec2{X: a.X, Y: a.Y}
	})

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine{
		agents:     make(map[string]*Agent),
		agentSlice: make([]*Agent, 0, cfg.MaxAgents),
		idx:        idx,
		cfg:        cfg,
		stopChan:   make(chan struct{}),
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// SetTickObserver installs a callback invoked after every tick, outside
// hot paths but under the engine lock. Used to publish metrics.
func (e *Engine) SetTickObserver(fn func(TickInfo)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = fn
}

// Start begins the tick loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.ticker = time.NewTicker(time.Second / time.Duration(e.cfg.TickRate))

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Tick()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("sim: engine started at %d TPS, world %.0fx%.0f",
		e.cfg.TickRate, e.cfg.WorldWidth, e.cfg.WorldHeight)
}

// Stop halts the tick loop. Safe to call twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	log.Println("sim: engine stopped")
}

// Tick advances the simulation one step: move agents, rebuild the
// index, run one neighbor query per agent and steer apart crowded
// agents. Exported so tests can step the engine without the ticker.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.tickCount++
	dt := 1.0 / float64(e.cfg.TickRate)

	e.agentSlice = e.agentSlice[:0]
	for _, a := range e.agents {
		e.agentSlice = append(e.agentSlice, a)
	}

	for _, a := range e.agentSlice {
		e.moveAgent(a, dt)
	}

	// Positions settled; one wholesale rebuild makes them queryable.
	e.idx.Rebuild()

	half := e.cfg.DetectionRange / 2
	for _, a := range e.agentSlice {
		window := index.Rect{X: a.X - half, Y: a.Y - half, W: e.cfg.DetectionRange, H: e.cfg.DetectionRange}
		hits := e.idx.Query(window)

		// hits is the index's reusable buffer; consumed before the
		// next Query call below.
		a.Neighbors = 0
		var pushX, pushY float64
		for _, other := range hits {
			if other == a {
				continue
			}
			a.Neighbors++
			dx := a.X - other.X
			dy := a.Y - other.Y
			d := math.Hypot(dx, dy)
			if d > 0 && d < a.Radius+other.Radius+8 {
				pushX += dx / d
				pushY += dy / d
			}
		}

		if pushX != 0 || pushY != 0 {
			a.VX += pushX * 20 * dt
			a.VY += pushY * 20 * dt
		}
	}

	if e.onTick != nil {
		e.onTick(TickInfo{
			Tick:     e.tickCount,
			Elapsed:  time.Since(start),
			Agents:   len(e.agentSlice),
			IndexOps: e.idx.Stats(),
		})
	}
}

// moveAgent integrates one step and reflects off the world edges. The
// clamp keeps agents strictly inside the half-open index bounds.
func (e *Engine) moveAgent(a *Agent, dt float64) {
	a.X += a.VX * dt
	a.Y += a.VY * dt

	const edge = 0.001
	if a.X < 0 {
		a.X = -a.X
		a.VX = -a.VX
	}
	if a.X >= e.cfg.WorldWidth {
		a.X = e.cfg.WorldWidth - edge
		a.VX = -a.VX
	}
	if a.Y < 0 {
		a.Y = -a.Y
		a.VY = -a.VY
	}
	if a.Y >= e.cfg.WorldHeight {
		a.Y = e.cfg.WorldHeight - edge
		a.VY = -a.VY
	}
}

// Spawn adds an agent with a seeded-random position and heading, or
// returns the existing agent of the same name. Returns nil when the
// agent cap is reached.
func (e *Engine) Spawn(name string, opts AgentOptions) *Agent {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.agents[name]; ok {
		return existing
	}
	if len(e.agents) >= e.cfg.MaxAgents {
		log.Printf("sim: agent limit reached (%d), rejecting %q", e.cfg.MaxAgents, name)
		return nil
	}

	e.nextID++
	radius := opts.Radius
	if radius <= 0 {
		radius = 6
	}
	speed := opts.Speed
	if speed <= 0 {
		speed = 40 + e.rng.Float64()*40
	}
	color := opts.Color
	if color == "" {
		color = defaultColors[e.nextID%len(defaultColors)]
	}

	heading := e.rng.Float64() * 2 * math.Pi
	a := &Agent{
		ID:     fmt.Sprintf("agent-%d", e.nextID),
		Name:   name,
		X:      e.rng.Float64()*e.cfg.WorldWidth*0.8 + e.cfg.WorldWidth*0.1,
		Y:      e.rng.Float64()*e.cfg.WorldHeight*0.8 + e.cfg.WorldHeight*0.1,
		VX:     math.Cos(heading) * speed,
		VY:     math.Sin(heading) * speed,
		Radius: radius,
		Color:  color,
	}

	e.agents[name] = a
	e.idx.Register(a, index.Vec2{X: a.X, Y: a.Y})
	return a
}

var defaultColors = []string{
	"#4fc3f7", "#ff8a65", "#aed581", "#ba68c8",
	"#ffd54f", "#4db6ac", "#f06292", "#90a4ae",
}

// Remove drops an agent and its index registration. Removing an unknown
// name is a no-op.
func (e *Engine) Remove(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.agents[name]
	if !ok {
		return false
	}
	delete(e.agents, name)
	e.idx.Unregister(a)
	return true
}

// Agent returns the live agent registered under name, or nil.
func (e *Engine) Agent(name string) *Agent {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.agents[name]
}

// Reset removes every agent and fully resets the index.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for name := range e.agents {
		delete(e.agents, name)
	}
	e.idx.Clear()
}

// WorldSnapshot is a consistent value copy of the simulation state.
type WorldSnapshot struct {
	Tick       int64           `json:"tick"`
	WorldW     float64         `json:"worldWidth"`
	WorldH     float64         `json:"worldHeight"`
	AgentCount int             `json:"agentCount"`
	Agents     []AgentSnapshot `json:"agents"`
	Index      index.Stats     `json:"index"`
}

// Snapshot copies the current state for lock-free consumers (API,
// websocket broadcast, renderer).
func (e *Engine) Snapshot() WorldSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	agents := make([]AgentSnapshot, 0, len(e.agents))
	for _, a := range e.agents {
		agents = append(agents, a.snapshot())
	}

	return WorldSnapshot{
		Tick:       e.tickCount,
		WorldW:     e.cfg.WorldWidth,
		WorldH:     e.cfg.WorldHeight,
		AgentCount: len(agents),
		Agents:     agents,
		Index:      e.idx.Stats(),
	}
}

// QueryRect runs a range query against the index as of the last rebuild
// and returns value copies of the matching agents.
func (e *Engine) QueryRect(r index.Rect) []AgentSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	hits := e.idx.Query(r)
	out := make([]AgentSnapshot, 0, len(hits))
	for _, a := range hits {
		out = append(out, a.snapshot())
	}
	return out
}

// IndexStats returns index statistics as of the last rebuild.
func (e *Engine) IndexStats() index.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.idx.Stats()
}

// Bounds returns the world rectangle the index covers.
func (e *Engine) Bounds() index.Rect {
	return index.Rect{X: 0, Y: 0, W: e.cfg.WorldWidth, H: e.cfg.WorldHeight}
}

// WalkIndex exposes the quadtree's active node boundaries for debug
// rendering.
func (e *Engine) WalkIndex(visit func(boundary index.Rect, depth int)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	e.idx.Walk(visit)
}
