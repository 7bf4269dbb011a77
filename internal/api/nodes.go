package api

import (
	"math"
	"net/http"

	"github.com/ecampos-dev/epinet/internal/epidemic"
)

type nodeView struct {
	StudentID string     `json:"student_id"`
	Index     int        `json:"index"`
	Position  [3]float64 `json:"position_3d"`
	Infected  bool       `json:"infected"`
}

// Nodes lists every student with a deterministic position on the unit
// sphere for visualization. When run_id is given, each node carries that
// run's current infection flag.
func (h *Handler) Nodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	mapper, err := h.provider.Mapper(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var infected *epidemic.Bitset
	if runID := r.URL.Query().Get("run_id"); runID != "" {
		run, err := h.registry.Get(runID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		infected = run.Infected()
	}

	ids := mapper.IDs()
	nodes := make([]nodeView, len(ids))
	for i, id := range ids {
		nodes[i] = nodeView{
			StudentID: id,
			Index:     i,
			Position:  spherePosition(i, len(ids)),
			Infected:  infected != nil && infected.Get(i),
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(nodes),
		"nodes": nodes,
	})
}

// Days lists the days that have attendance data.
func (h *Handler) Days(w http.ResponseWriter, r *http.Request) {
	days, err := h.provider.Store().Days(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

// spherePosition places index i of n on the unit sphere via the Fibonacci
// lattice, so layouts are stable across requests for a fixed dataset.
func spherePosition(i, n int) [3]float64 {
	if n == 1 {
		return [3]float64{0, 0, 0}
	}
	y := 1 - 2*(float64(i)+0.5)/float64(n)
	radius := math.Sqrt(1 - y*y)
	theta := math.Pi * (3 - math.Sqrt(5)) * float64(i)
	return [3]float64{radius * math.Cos(theta), y, radius * math.Sin(theta)}
}
