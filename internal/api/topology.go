package api

import (
	"fmt"
	"net/http"

	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/internal/topology"
	"github.com/ecampos-dev/epinet/pkg/middleware"
	"github.com/ecampos-dev/epinet/pkg/tracing"
)

// Topology dispatches /api/v1/topology/{analysis} to the matching analyzer.
// Supported analyses are mst, components, centrality, and degree. The day
// query parameter is required; weight_mode and mst_mode fall back to
// defaults.
func (h *Handler) Topology(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	day := q.Get("day")
	if day == "" {
		h.writeBadRequest(w, "query parameter 'day' is required")
		return
	}

	analysis := r.PathValue("analysis")
	ctx, span := tracing.StartSpan(ctx, "topology."+analysis, middleware.GetRequestID(ctx))
	span.SetAttr("day", day)
	defer func() {
		span.End()
		span.Log()
	}()
	weightMode := network.WeightMode(h.defaults.WeightMode)
	if s := q.Get("weight_mode"); s != "" {
		parsed, err := network.ParseWeightMode(s)
		if err != nil {
			h.writeError(w, err)
			return
		}
		weightMode = parsed
	}
	span.SetAttr("weight_mode", string(weightMode))

	mapper, err := h.provider.Mapper(ctx)
	if err != nil {
		span.SetError(err)
		h.writeError(w, err)
		return
	}

	switch analysis {
	case "mst":
		mstMode := topology.MSTInverse
		if s := q.Get("mst_mode"); s != "" {
			parsed, err := topology.ParseMSTMode(s)
			if err != nil {
				h.writeError(w, err)
				return
			}
			mstMode = parsed
		}
		result, err := h.analyzer.MST(ctx, day, weightMode, mstMode)
		if err != nil {
			span.SetError(err)
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"day":             day,
			"weight_mode":     string(weightMode),
			"mst_mode":        string(mstMode),
			"num_nodes":       result.NumNodes,
			"num_components":  result.NumComponents,
			"total_weight":    result.TotalWeight,
			"avg_weight":      result.AvgWeight,
			"reduction_ratio": result.ReductionRatio,
			"edges":           edgeList(mapper, result.Edges),
			"critical_edges":  edgeList(mapper, topology.CriticalEdges(*result)),
		})

	case "components":
		components, err := h.analyzer.Components(ctx, day, weightMode)
		if err != nil {
			span.SetError(err)
			h.writeError(w, err)
			return
		}
		out := make([]map[string]any, 0, len(components))
		for _, c := range components {
			out = append(out, map[string]any{
				"students": idsFor(mapper, c.Nodes),
				"size":     c.Size,
				"priority": c.Priority,
			})
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"day":            day,
			"weight_mode":    string(weightMode),
			"num_components": len(components),
			"components":     out,
		})

	case "centrality":
		result, err := h.analyzer.Centrality(ctx, day, weightMode)
		if err != nil {
			span.SetError(err)
			h.writeError(w, err)
			return
		}
		scores := make([]map[string]any, 0, len(result.Degree))
		for i := range result.Degree {
			id, err := mapper.IDOf(i)
			if err != nil {
				continue
			}
			scores = append(scores, map[string]any{
				"student_id":  id,
				"degree":      result.Degree[i],
				"betweenness": result.Betweenness[i],
				"closeness":   result.Closeness[i],
			})
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"day":         day,
			"weight_mode": string(weightMode),
			"scores":      scores,
		})

	case "degree":
		result, err := h.analyzer.Centrality(ctx, day, weightMode)
		if err != nil {
			span.SetError(err)
			h.writeError(w, err)
			return
		}
		scores := make([]map[string]any, 0, len(result.Degree))
		for i := range result.Degree {
			id, err := mapper.IDOf(i)
			if err != nil {
				continue
			}
			scores = append(scores, map[string]any{
				"student_id": id,
				"degree":     result.Degree[i],
			})
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"day":         day,
			"weight_mode": string(weightMode),
			"scores":      scores,
		})

	default:
		h.writeBadRequest(w, fmt.Sprintf("unknown analysis %q (want mst, components, centrality or degree)", analysis))
	}
}

// CacheStats reports the in-process matrix cache and the Redis result cache
// counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	netHits, netMisses := h.netCache.Stats()
	topoHits, topoMisses := h.analyzer.CacheStats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"network": map[string]any{
			"hits":     netHits,
			"misses":   netMisses,
			"hit_rate": hitRate(netHits, netMisses),
			"cached":   h.netCache.Len(),
		},
		"topology": map[string]any{
			"hits":     topoHits,
			"misses":   topoMisses,
			"hit_rate": hitRate(topoHits, topoMisses),
		},
	})
}

// CacheInvalidate drops every cached matrix and topology result.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	h.netCache.Purge()
	if err := h.analyzer.Invalidate(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func edgeList(mapper *network.IndexMap, edges []network.Edge) []map[string]any {
	out := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		source, errU := mapper.IDOf(e.U)
		target, errV := mapper.IDOf(e.V)
		if errU != nil || errV != nil {
			continue
		}
		out = append(out, map[string]any{
			"source": source,
			"target": target,
			"weight": e.Weight,
		})
	}
	return out
}

func hitRate(hits, misses int64) string {
	total := hits + misses
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(hits)/float64(total)*100)
}
