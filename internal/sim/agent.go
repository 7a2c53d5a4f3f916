package sim

// Agent is a simulated entity wandering inside the world bounds. The
// engine owns all mutation; pointers handed to the index are only read
// back through queries.
type Agent struct {
	ID   string
	Name string

	X, Y   float64
	VX, VY float64

	Radius float64
	Color  string

	// Neighbors holds the range-query hit count from the last tick,
	// excluding the agent itself.
	Neighbors int
}

// AgentOptions configures a spawned agent. Zero values fall back to
// engine defaults.
type AgentOptions struct {
	Color  string
	Radius float64
	Speed  float64
}

// AgentSnapshot is an immutable value copy of an agent, safe to hand to
// the API and render layers without holding the engine lock.
type AgentSnapshot struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Radius    float64 `json:"radius"`
	Color     string  `json:"color"`
	Neighbors int     `json:"neighbors"`
}

func (a *Agent) snapshot() AgentSnapshot {
	return AgentSnapshot{
		ID:        a.ID,
		Name:      a.Name,
		X:         a.X,
		Y:         a.Y,
		VX:        a.VX,
		VY:        a.VY,
		Radius:    a.Radius,
		Color:     a.Color,
		Neighbors: a.Neighbors,
	}
}
