// Package topology computes structural analyses (minimum spanning tree,
// weakly connected components, centrality) directly against the sparse
// contact matrix. The algorithms are implemented in-package rather than
// delegated, because the tie-break and disconnection semantics are part of
// the contract.
package topology

import (
	"fmt"

	"github.com/ecampos-dev/epinet/internal/network"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

// MSTMode selects the weight transform applied before Kruskal so that
// "lower transformed weight" encodes "preferred edge".
type MSTMode string

const (
	// MSTInverse prefers heavy contacts: transformed weight 1/(w+eps).
	MSTInverse MSTMode = "inverse"
	// MSTNegative prefers heavy contacts via negation (maximum spanning
	// tree in original weights).
	MSTNegative MSTMode = "negative"
	// MSTUniform keeps original weights (classic minimum spanning tree).
	MSTUniform MSTMode = "uniform"
)

// mstEpsilon guards the inverse transform against division by zero.
const mstEpsilon = 1e-10

// ParseMSTMode validates a caller-supplied MST weight transform name.
func ParseMSTMode(s string) (MSTMode, error) {
	switch MSTMode(s) {
	case MSTInverse, MSTNegative, MSTUniform:
		return MSTMode(s), nil
	default:
		return "", fmt.Errorf("%w: mst_mode %q (want inverse, negative or uniform)", apperrors.ErrInvalidParameter, s)
	}
}

// MSTResult holds a minimum spanning forest and its summary statistics.
// Edges carry original (untransformed) weights.
type MSTResult struct {
	Edges          []network.Edge `json:"edges"`
	NumNodes       int            `json:"num_nodes"`
	NumComponents  int            `json:"num_components"`
	TotalWeight    float64        `json:"total_weight"`
	AvgWeight      float64        `json:"avg_weight"`
	ReductionRatio float64        `json:"reduction_ratio"`
}

// Component is one weakly connected component. Priority is the quarantine
// priority 1/size: small isolated groups are flagged first.
type Component struct {
	Nodes    []int   `json:"nodes"`
	Size     int     `json:"size"`
	Priority float64 `json:"priority"`
}

// CentralityResult holds the per-node centrality scores, indexed by dense
// node index.
type CentralityResult struct {
	Degree      []float64 `json:"degree"`
	Betweenness []float64 `json:"betweenness"`
	Closeness   []float64 `json:"closeness"`
}
