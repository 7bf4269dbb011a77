package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ecampos-dev/epinet/internal/epidemic"
	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/internal/topology"
	"github.com/ecampos-dev/epinet/pkg/logger"
)

type startRequest struct {
	Beta            *float64 `json:"beta"`
	NumPatientsZero *int     `json:"num_patients_zero"`
	WeightMode      string   `json:"weight_mode"`
	Seed            *int64   `json:"seed"`
	Days            []string `json:"days"`
}

type runSummary struct {
	RunID           string   `json:"run_id"`
	State           string   `json:"state"`
	Beta            float64  `json:"beta"`
	NumPatientsZero int      `json:"num_patients_zero"`
	WeightMode      string   `json:"weight_mode"`
	Seed            int64    `json:"seed"`
	Days            []string `json:"days"`
	PatientsZero    []string `json:"patients_zero"`
	DaysSimulated   int      `json:"days_simulated"`
	TotalInfected   int      `json:"total_infected"`
}

type tickResponse struct {
	RunID            string   `json:"run_id"`
	Day              string   `json:"day"`
	DayNumber        int      `json:"day_number"`
	NewInfected      []string `json:"new_infected"`
	NewInfectedCount int      `json:"new_infected_count"`
	TotalInfected    int      `json:"total_infected"`
	State            string   `json:"state"`
}

// StartSimulation creates a new run. Parameters missing from the request
// body fall back to the configured defaults; an empty body is valid.
func (h *Handler) StartSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}

	params := epidemic.StartParams{
		Beta:         h.defaults.Beta,
		PatientsZero: h.defaults.PatientsZero,
		Mode:         network.WeightMode(h.defaults.WeightMode),
		Seed:         req.Seed,
		DaySequence:  req.Days,
	}
	if req.Beta != nil {
		params.Beta = *req.Beta
	}
	if req.NumPatientsZero != nil {
		params.PatientsZero = *req.NumPatientsZero
	}
	if req.WeightMode != "" {
		params.Mode = network.WeightMode(req.WeightMode)
	}

	run, err := h.simulator.Start(ctx, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	summary, err := h.summarize(r, run)
	if err != nil {
		h.writeError(w, err)
		return
	}
	log.Info("simulation created", "run_id", run.ID)
	h.writeJSON(w, http.StatusCreated, summary)
}

// SimulationStatus returns the run's parameters and progress.
func (h *Handler) SimulationStatus(w http.ResponseWriter, r *http.Request) {
	run, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	summary, err := h.summarize(r, run)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

// TickSimulation advances the run by one day. The body may name the day
// explicitly; otherwise the next unfinished day in the run's sequence is
// used.
func (h *Handler) TickSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := r.PathValue("id")

	var req struct {
		Day string `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeBadRequest(w, "invalid JSON body")
		return
	}

	run, err := h.registry.Get(runID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	day := req.Day
	if day == "" {
		if remaining := run.RemainingDays(); len(remaining) > 0 {
			day = remaining[0]
		}
	}

	result, err := h.simulator.Tick(ctx, runID, day)
	if err != nil {
		h.writeError(w, err)
		return
	}

	mapper, err := h.provider.Mapper(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tickResponse{
		RunID:            runID,
		Day:              result.Day,
		DayNumber:        result.DayNumber,
		NewInfected:      idsFor(mapper, result.NewInfected),
		NewInfectedCount: len(result.NewInfected),
		TotalInfected:    result.TotalInfected,
		State:            string(run.State()),
	})
}

// RunSimulation ticks the run through all of its remaining days.
func (h *Handler) RunSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := r.PathValue("id")

	results, err := h.simulator.RunRemaining(ctx, runID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	run, err := h.registry.Get(runID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	mapper, err := h.provider.Mapper(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ticks := make([]tickResponse, 0, len(results))
	for _, result := range results {
		ticks = append(ticks, tickResponse{
			RunID:            runID,
			Day:              result.Day,
			DayNumber:        result.DayNumber,
			NewInfected:      idsFor(mapper, result.NewInfected),
			NewInfectedCount: len(result.NewInfected),
			TotalInfected:    result.TotalInfected,
			State:            string(run.State()),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"state":  string(run.State()),
		"ticks":  ticks,
	})
}

// SimulationTimeline returns the full per-day history of the run.
func (h *Handler) SimulationTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	mapper, err := h.provider.Mapper(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	history := run.History()
	timeline := make([]map[string]any, 0, len(history))
	for _, result := range history {
		timeline = append(timeline, map[string]any{
			"day":                result.Day,
			"day_number":         result.DayNumber,
			"new_infected":       idsFor(mapper, result.NewInfected),
			"new_infected_count": len(result.NewInfected),
			"total_infected":     result.TotalInfected,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   run.ID,
		"state":    string(run.State()),
		"days":     run.DaySequence,
		"timeline": timeline,
	})
}

// SimulationTree returns the run's propagation tree: one directed edge per
// infection, from the contact that carried it to the new case, with the
// contact weight and day.
func (h *Handler) SimulationTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	mapper, err := h.provider.Mapper(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	transmissions := run.Transmissions()
	edges := make([]map[string]any, 0, len(transmissions))
	for _, tr := range transmissions {
		source, errS := mapper.IDOf(tr.Source)
		target, errT := mapper.IDOf(tr.Target)
		if errS != nil || errT != nil {
			continue
		}
		edges = append(edges, map[string]any{
			"source": source,
			"target": target,
			"weight": tr.Weight,
			"day":    tr.Day,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":            run.ID,
		"state":             string(run.State()),
		"num_transmissions": len(edges),
		"edges":             edges,
	})
}

// InfectedComponents returns the weakly connected components of the infected
// subpopulation on one day's contact network. The day defaults to the run's
// most recently simulated one.
func (h *Handler) InfectedComponents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	run, err := h.registry.Get(r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	day := r.URL.Query().Get("day")
	if day == "" {
		history := run.History()
		if len(history) == 0 {
			h.writeBadRequest(w, "run has no simulated days yet; pass ?day=")
			return
		}
		day = history[len(history)-1].Day
	}

	matrix, mapper, err := h.provider.MatrixForDay(ctx, day, run.Mode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	components := topology.ComponentsOf(matrix, run.Infected().Indices())

	out := make([]map[string]any, 0, len(components))
	for _, c := range components {
		out = append(out, map[string]any{
			"students": idsFor(mapper, c.Nodes),
			"size":     c.Size,
			"priority": c.Priority,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     run.ID,
		"day":        day,
		"components": out,
	})
}

// DiscardSimulation removes the run from the registry.
func (h *Handler) DiscardSimulation(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Discard(r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summarize(r *http.Request, run *epidemic.Run) (runSummary, error) {
	mapper, err := h.provider.Mapper(r.Context())
	if err != nil {
		return runSummary{}, err
	}
	history := run.History()
	var totalInfected int
	if len(history) > 0 {
		totalInfected = history[len(history)-1].TotalInfected
	} else {
		totalInfected = len(run.PatientsZero)
	}
	return runSummary{
		RunID:           run.ID,
		State:           string(run.State()),
		Beta:            run.Beta,
		NumPatientsZero: len(run.PatientsZero),
		WeightMode:      string(run.Mode),
		Seed:            run.Seed,
		Days:            run.DaySequence,
		PatientsZero:    idsFor(mapper, run.PatientsZero),
		DaysSimulated:   len(history),
		TotalInfected:   totalInfected,
	}, nil
}

// idsFor maps dense indices back to student ids, skipping any index the
// mapper no longer knows.
func idsFor(mapper *network.IndexMap, indices []int) []string {
	ids := make([]string, 0, len(indices))
	for _, idx := range indices {
		id, err := mapper.IDOf(idx)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
