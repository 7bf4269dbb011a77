// Package api exposes the simulation and topology engine over HTTP. Handlers
// translate JSON requests into core calls and map sentinel errors onto HTTP
// status codes.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ecampos-dev/epinet/internal/epidemic"
	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/internal/topology"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

// Defaults are the fallback simulation parameters applied when a request
// omits them.
type Defaults struct {
	Beta         float64
	PatientsZero int
	WeightMode   string
}

// Handler serves the /api/v1 surface.
type Handler struct {
	simulator *epidemic.Simulator
	registry  *epidemic.Registry
	analyzer  *topology.Analyzer
	provider  *network.Provider
	netCache  *network.Cache
	defaults  Defaults
	logger    *slog.Logger
}

// New wires a Handler.
func New(
	simulator *epidemic.Simulator,
	registry *epidemic.Registry,
	analyzer *topology.Analyzer,
	provider *network.Provider,
	netCache *network.Cache,
	defaults Defaults,
) *Handler {
	return &Handler{
		simulator: simulator,
		registry:  registry,
		analyzer:  analyzer,
		provider:  provider,
		netCache:  netCache,
		defaults:  defaults,
		logger:    slog.Default().With("component", "api-handler"),
	}
}

// Register attaches every route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/simulations", h.StartSimulation)
	mux.HandleFunc("GET /api/v1/simulations/{id}", h.SimulationStatus)
	mux.HandleFunc("POST /api/v1/simulations/{id}/tick", h.TickSimulation)
	mux.HandleFunc("POST /api/v1/simulations/{id}/run", h.RunSimulation)
	mux.HandleFunc("GET /api/v1/simulations/{id}/timeline", h.SimulationTimeline)
	mux.HandleFunc("GET /api/v1/simulations/{id}/tree", h.SimulationTree)
	mux.HandleFunc("GET /api/v1/simulations/{id}/components", h.InfectedComponents)
	mux.HandleFunc("DELETE /api/v1/simulations/{id}", h.DiscardSimulation)
	mux.HandleFunc("GET /api/v1/nodes", h.Nodes)
	mux.HandleFunc("GET /api/v1/days", h.Days)
	mux.HandleFunc("GET /api/v1/topology/{analysis}", h.Topology)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}
