package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"quad-arena/internal/index"
	"quad-arena/internal/sim"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleGetState returns the full world snapshot.
func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// handleGetStats returns index and rate-limiter statistics.
func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tick":       snap.Tick,
		"agentCount": snap.AgentCount,
		"index":      h.engine.IndexStats(),
		"rateLimit":  h.limiter.GetStats(),
	})
}

func parseFloatParam(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	return v, err == nil
}

// handleQuery runs a range query: GET /api/query?x=&y=&w=&h=
func (h *routerHandlers) handleQuery(w http.ResponseWriter, r *http.Request) {
	x, okX := parseFloatParam(r, "x")
	y, okY := parseFloatParam(r, "y")
	qw, okW := parseFloatParam(r, "w")
	qh, okH := parseFloatParam(r, "h")

	if !okX || !okY || !okW || !okH {
		writeError(w, http.StatusBadRequest, "x, y, w and h must be numbers")
		return
	}
	if qw <= 0 || qh <= 0 {
		writeError(w, http.StatusBadRequest, "w and h must be positive")
		return
	}

	window := index.Rect{X: x, Y: y, W: qw, H: qh}
	start := time.Now()
	hits := h.engine.QueryRect(window)
	RecordQuery(time.Since(start))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"window": window,
		"count":  len(hits),
		"agents": hits,
	})
}

type spawnRequest struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Radius float64 `json:"radius"`
	Speed  float64 `json:"speed"`
}

// handleSpawnAgent adds an agent: POST /api/agents
func (h *routerHandlers) handleSpawnAgent(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	a := h.engine.Spawn(req.Name, sim.AgentOptions{
		Color:  req.Color,
		Radius: req.Radius,
		Speed:  req.Speed,
	})
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, "agent limit reached")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":   a.ID,
		"name": a.Name,
		"x":    a.X,
		"y":    a.Y,
	})
}

// handleRemoveAgent drops an agent: DELETE /api/agents/{name}
func (h *routerHandlers) handleRemoveAgent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !h.engine.Remove(name) {
		writeError(w, http.StatusNotFound, "unknown agent")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": name})
}

// handleFrame renders a debug frame: GET /api/frame.png
func (h *routerHandlers) handleFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, http.StatusServiceUnavailable, "renderer not configured")
		return
	}

	start := time.Now()
	data, err := h.renderer.Frame(h.engine)
	if err != nil {
		log.Printf("api: render frame: %v", err)
		writeError(w, http.StatusInternalServerError, "frame render failed")
		return
	}
	RecordFrame(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
