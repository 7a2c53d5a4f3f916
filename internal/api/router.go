package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quad-arena/internal/index"
	"quad-arena/internal/render"
	"quad-arena/internal/sim"
)

// EngineInterface lists the engine methods the API layer calls. Tests
// can substitute a stub without starting the tick loop. It is a
// superset of render.FrameSource so the frame endpoint can draw
// straight from it.
type EngineInterface interface {
	Snapshot() sim.WorldSnapshot
	WalkIndex(visit func(boundary index.Rect, depth int))
	Spawn(name string, opts sim.AgentOptions) *sim.Agent
	Remove(name string) bool
	QueryRect(r index.Rect) []sim.AgentSnapshot
	IndexStats() index.Stats
	Bounds() index.Rect
}

// RouterConfig carries the router's dependencies. Designed for
// injection so httptest can drive the routes directly.
type RouterConfig struct {
	// Engine is required.
	Engine EngineInterface

	// Renderer serves /api/frame.png. Optional; the endpoint returns
	// 503 when nil.
	Renderer *render.Renderer

	// RateLimiter is an optional pre-built limiter. When nil one is
	// created from RateLimitConfig, falling back to the defaults.
	RateLimiter     *IPRateLimiter
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the default localhost-only origins.
	CORSOrigins []string

	// DisableLogging drops the request logger, for benchmarks.
	DisableLogging bool
}

type routerHandlers struct {
	engine   EngineInterface
	renderer *render.Renderer
	limiter  *IPRateLimiter
}

// NewRouter constructs the HTTP router. It is pure: no goroutines, no
// listeners, so it plugs straight into httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS, to reject early.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:   cfg.Engine,
		renderer: cfg.Renderer,
		limiter:  rateLimiter,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/query", h.handleQuery)

		r.Post("/agents", h.handleSpawnAgent)
		r.Delete("/agents/{name}", h.handleRemoveAgent)

		r.Get("/frame.png", h.handleFrame)
	})

	r.Get("/health", h.handleHealth)

	return r
}
