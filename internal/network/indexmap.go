// Package network builds per-day weighted contact networks from attendance
// facts and holds their compressed sparse-row representation, the dense
// student-id index mapping, and the bounded network cache.
package network

import (
	"fmt"
	"sort"

	apperrors "github.com/ecampos-dev/epinet/pkg/errors"
)

// IndexMap is the bijection between external student ids and dense matrix
// indices [0, N). It is built once per dataset version and is immutable, so
// the same dataset always produces the same index assignment.
type IndexMap struct {
	ids   []string
	index map[string]int
}

// NewIndexMap builds an IndexMap over the given student ids. Ids are
// deduplicated and assigned indices in ascending lexicographic order.
func NewIndexMap(studentIDs []string) *IndexMap {
	seen := make(map[string]struct{}, len(studentIDs))
	ids := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	return &IndexMap{ids: ids, index: index}
}

// Len returns N, the number of mapped students.
func (m *IndexMap) Len() int {
	return len(m.ids)
}

// IndexOf returns the dense index for a student id.
func (m *IndexMap) IndexOf(id string) (int, error) {
	idx, ok := m.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownStudent, id)
	}
	return idx, nil
}

// IDOf returns the student id for a dense index.
func (m *IndexMap) IDOf(idx int) (string, error) {
	if idx < 0 || idx >= len(m.ids) {
		return "", fmt.Errorf("%w: %d (n=%d)", apperrors.ErrIndexOutOfRange, idx, len(m.ids))
	}
	return m.ids[idx], nil
}

// IDs returns a copy of the mapped student ids in index order.
func (m *IndexMap) IDs() []string {
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}
