package topology

import (
	"sort"

	"github.com/ecampos-dev/epinet/internal/network"
)

// KruskalMST computes the minimum spanning forest of the day's contact
// graph under the given weight transform. Edges are taken in the matrix's
// canonical discovery order, sorted ascending by transformed weight with a
// stable sort so equal-weight edges keep that order, and accepted whenever
// their endpoints lie in different union-find components. A disconnected
// graph yields one tree per component, N - #components edges in total;
// callers must not assume |V|-1 edges.
//
// Complexity: O(E log E) for the sort plus near-O(E) union-find work.
func KruskalMST(m *network.Matrix, mode MSTMode) MSTResult {
	n := m.NumNodes()
	edges := m.Edges()

	transformed := make([]float64, len(edges))
	for i, e := range edges {
		switch mode {
		case MSTInverse:
			transformed[i] = 1 / (e.Weight + mstEpsilon)
		case MSTNegative:
			transformed[i] = -e.Weight
		default:
			transformed[i] = e.Weight
		}
	}

	order := make([]int, len(edges))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return transformed[order[a]] < transformed[order[b]]
	})

	uf := newUnionFind(n)
	var (
		forest      []network.Edge
		totalWeight float64
	)
	for _, idx := range order {
		e := edges[idx]
		if uf.union(e.U, e.V) {
			forest = append(forest, e)
			totalWeight += e.Weight
		}
	}

	result := MSTResult{
		Edges:         forest,
		NumNodes:      n,
		NumComponents: n - len(forest),
		TotalWeight:   totalWeight,
	}
	if len(forest) > 0 {
		result.AvgWeight = totalWeight / float64(len(forest))
	}
	if len(edges) > 0 {
		result.ReductionRatio = 1 - float64(len(forest))/float64(len(edges))
	}
	return result
}

// CriticalEdges returns the forest's edges sorted by descending original
// weight: the strongest contacts the spanning structure depends on.
func CriticalEdges(result MSTResult) []network.Edge {
	out := make([]network.Edge, len(result.Edges))
	copy(out, result.Edges)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}
