package network

import (
	"fmt"
	"log/slog"

	"github.com/ecampos-dev/epinet/internal/attendance"
	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

// WeightMode selects how class co-attendance translates into edge weight.
type WeightMode string

const (
	// WeightUniform gives every contact edge weight 1.0.
	WeightUniform WeightMode = "uniform"
	// WeightDuration scales weight by class duration relative to the
	// longest class active that day.
	WeightDuration WeightMode = "duration"
	// WeightInverse weights by 1/duration, favouring short contacts.
	WeightInverse WeightMode = "inverse"
)

// ParseWeightMode validates a caller-supplied weight mode string.
func ParseWeightMode(s string) (WeightMode, error) {
	switch WeightMode(s) {
	case WeightUniform, WeightDuration, WeightInverse:
		return WeightMode(s), nil
	default:
		return "", fmt.Errorf("%w: weight_mode %q (want uniform, duration or inverse)", apperrors.ErrInvalidParameter, s)
	}
}

// Edge is one undirected weighted contact between two dense indices, u < v.
type Edge struct {
	U      int     `json:"u"`
	V      int     `json:"v"`
	Weight float64 `json:"weight"`
}

// Builder turns one day's attendance facts into a deduplicated weighted
// edge set over the mapper's index space.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{
		logger: slog.Default().With("component", "network-builder"),
	}
}

// BuildEdges groups the day's present facts by class and emits one edge per
// unordered pair of co-attending students, n(n-1)/2 per roster of size
// n >= 2. A pair sharing several classes the same day has its weights
// SUMMED into a single edge (documented merge policy). Duplicate attendance
// rows for the same (student, class) are ignored.
//
// Complexity is O(sum over classes of n_c(n_c-1)/2).
func (b *Builder) BuildEdges(
	facts []attendance.Fact,
	classes map[string]attendance.Class,
	mapper *IndexMap,
	mode WeightMode,
) ([]Edge, error) {
	rosters, classOrder, err := groupRosters(facts, mapper)
	if err != nil {
		return nil, err
	}

	maxDuration := 0.0
	if mode == WeightDuration {
		for _, classID := range classOrder {
			class, ok := classes[classID]
			if !ok || class.DurationHours <= 0 {
				return nil, fmt.Errorf("%w: class %q", apperrors.ErrInvalidDuration, classID)
			}
			if class.DurationHours > maxDuration {
				maxDuration = class.DurationHours
			}
		}
	}

	type pair struct{ u, v int }
	merged := make(map[pair]float64)
	var order []pair

	for _, classID := range classOrder {
		roster := rosters[classID]
		if len(roster) < 2 {
			continue
		}

		var weight float64
		switch mode {
		case WeightUniform:
			weight = 1.0
		case WeightDuration:
			weight = classes[classID].DurationHours / maxDuration
		case WeightInverse:
			class, ok := classes[classID]
			if !ok || class.DurationHours <= 0 {
				return nil, fmt.Errorf("%w: class %q", apperrors.ErrInvalidDuration, classID)
			}
			weight = 1.0 / class.DurationHours
		default:
			return nil, fmt.Errorf("%w: weight_mode %q", apperrors.ErrInvalidParameter, mode)
		}

		for i := 0; i < len(roster); i++ {
			for j := i + 1; j < len(roster); j++ {
				u, v := roster[i], roster[j]
				if u > v {
					u, v = v, u
				}
				p := pair{u, v}
				if _, ok := merged[p]; !ok {
					order = append(order, p)
				}
				merged[p] += weight
			}
		}
	}

	edges := make([]Edge, 0, len(order))
	for _, p := range order {
		edges = append(edges, Edge{U: p.u, V: p.v, Weight: merged[p]})
	}

	b.logger.Debug("edges built",
		"classes", len(classOrder),
		"edges", len(edges),
		"weight_mode", string(mode),
	)
	return edges, nil
}

// groupRosters collects the present students per class, deduplicated and
// mapped to dense indices. classOrder preserves first appearance so edge
// discovery order is reproducible for a given fact ordering.
func groupRosters(facts []attendance.Fact, mapper *IndexMap) (map[string][]int, []string, error) {
	rosters := make(map[string][]int)
	inRoster := make(map[string]map[int]struct{})
	var classOrder []string

	for _, f := range facts {
		if !f.Present {
			continue
		}
		idx, err := mapper.IndexOf(f.StudentID)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := rosters[f.ClassID]; !ok {
			classOrder = append(classOrder, f.ClassID)
			inRoster[f.ClassID] = make(map[int]struct{})
		}
		if _, dup := inRoster[f.ClassID][idx]; dup {
			continue
		}
		inRoster[f.ClassID][idx] = struct{}{}
		rosters[f.ClassID] = append(rosters[f.ClassID], idx)
	}
	return rosters, classOrder, nil
}
