package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"quad-arena/internal/render"
	"quad-arena/internal/sim"
)

// Server ties the router, the WebSocket hub and the rate limiter
// together. NewServer is pure; Start launches the goroutines.
type Server struct {
	engine      *sim.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
}

// ServerConfig configures the public API server.
type ServerConfig struct {
	Engine      *sim.Engine
	Renderer    *render.Renderer
	CORSOrigins []string
	RateLimit   *RateLimitConfig
}

// NewServer builds the server without side effects.
func NewServer(cfg ServerConfig) *Server {
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimit != nil {
		rateLimitCfg = *cfg.RateLimit
	}
	rateLimiter := NewIPRateLimiter(rateLimitCfg)

	router := NewRouter(RouterConfig{
		Engine:      cfg.Engine,
		Renderer:    cfg.Renderer,
		RateLimiter: rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	s := &Server{
		engine:      cfg.Engine,
		router:      router,
		wsHub:       NewWebSocketHub(),
		rateLimiter: rateLimiter,
	}
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Router exposes the mux for httptest.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Hub exposes the WebSocket hub, mainly for manual broadcasts.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Start launches the hub, the broadcast loop and the HTTP listener.
// Blocks until the listener returns.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("api: listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the listener and the rate limiter cleanup down.
func (s *Server) Stop() {
	s.rateLimiter.Stop()
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}
