package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quad-arena/internal/sim"
)

// Metrics with bounded cardinality (no per-agent labels).
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent in one simulation tick, including the index rebuild",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
	})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "index_query_duration_seconds",
		Help:    "Time spent serving an API range query",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01},
	})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debug_frame_duration_seconds",
		Help:    "Time spent rendering and encoding a debug frame",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	agentCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_agent_count",
		Help: "Current number of simulated agents",
	})

	indexNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "index_tree_nodes",
		Help: "Active quadtree nodes as of the last rebuild",
	})

	indexDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "index_tree_depth",
		Help: "Deepest active quadtree node as of the last rebuild",
	})

	pooledWrappers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "index_pooled_wrappers",
		Help: "Entity wrappers waiting in the freelist",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or connection caps",
	}, []string{"reason"}) // bounded: "rate_limit", "ws_total_limit", "ws_ip_limit"

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages broadcast",
	})
)

// ObserveTick publishes per-tick metrics. Wire it to the engine with
// Engine.SetTickObserver.
func ObserveTick(info sim.TickInfo) {
	tickDuration.Observe(info.Elapsed.Seconds())
	agentCount.Set(float64(info.Agents))
	indexNodes.Set(float64(info.IndexOps.Tree.Nodes))
	indexDepth.Set(float64(info.IndexOps.Tree.MaxDepth))
	pooledWrappers.Set(float64(info.IndexOps.Pooled))
}

// RecordQuery records API range-query timing.
func RecordQuery(d time.Duration) {
	queryDuration.Observe(d.Seconds())
}

// RecordFrame records debug-frame render timing.
func RecordFrame(d time.Duration) {
	frameDuration.Observe(d.Seconds())
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "ws_total_limit", "ws_ip_limit".
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge.
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the broadcast message counter.
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// ObservabilityConfig configures the internal debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // must stay on localhost unless explicitly overridden
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// StartDebugServer starts the internal observability server with pprof
// and the prometheus metrics endpoint. It binds to localhost only
// unless ALLOW_DEBUG_EXTERNAL=true is set.
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("api: debug server disabled")
		return nil
	}

	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("api: debug server forced to localhost")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("api: debug server on %s (pprof, /metrics)", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("api: debug server error: %v", err)
		}
	}()

	return nil
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
