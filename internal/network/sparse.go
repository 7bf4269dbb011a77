package network

import "sort"

// Matrix is a symmetric N x N weighted adjacency in compressed sparse-row
// form. Each undirected edge contributes two directed entries, so the value
// and column arrays have length K = 2 * edge count. A Matrix is immutable
// once built; it is rebuilt only on cache eviction or dataset change.
type Matrix struct {
	n        int
	values   []float64
	colIndex []int
	rowPtr   []int
}

// NewMatrix converts a deduplicated undirected edge set into CSR form:
// directed entries are sorted by row then column, and rowPtr holds the
// running counts. Construction is O(K log K) in the sort, O(K) otherwise.
func NewMatrix(n int, edges []Edge) *Matrix {
	type entry struct {
		row, col int
		weight   float64
	}
	entries := make([]entry, 0, 2*len(edges))
	for _, e := range edges {
		entries = append(entries, entry{e.U, e.V, e.Weight}, entry{e.V, e.U, e.Weight})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].row != entries[j].row {
			return entries[i].row < entries[j].row
		}
		return entries[i].col < entries[j].col
	})

	m := &Matrix{
		n:        n,
		values:   make([]float64, len(entries)),
		colIndex: make([]int, len(entries)),
		rowPtr:   make([]int, n+1),
	}
	for i, e := range entries {
		m.values[i] = e.weight
		m.colIndex[i] = e.col
		m.rowPtr[e.row+1]++
	}
	for i := 0; i < n; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
	return m
}

// NumNodes returns N.
func (m *Matrix) NumNodes() int {
	return m.n
}

// NumEdges returns the undirected edge count (nonzeros / 2).
func (m *Matrix) NumEdges() int {
	return len(m.values) / 2
}

// Multiply computes the matrix-vector product in O(K). With vec holding the
// 0/1 infection vector, result_i is node i's exposure: the weighted sum of
// its infected neighbours.
func (m *Matrix) Multiply(vec []float64) []float64 {
	result := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		var sum float64
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.values[k] * vec[m.colIndex[k]]
		}
		result[i] = sum
	}
	return result
}

// Degree returns the number of nonzero entries in row i.
func (m *Matrix) Degree(i int) int {
	return m.rowPtr[i+1] - m.rowPtr[i]
}

// Neighbors returns row i's column indices and weights as read-only views
// into the CSR arrays. Callers must not modify them.
func (m *Matrix) Neighbors(i int) (cols []int, weights []float64) {
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	return m.colIndex[start:end], m.values[start:end]
}

// At returns the weight of entry (i, j), or 0 when absent. Row entries are
// column-sorted, so the lookup is a binary search within the row.
func (m *Matrix) At(i, j int) float64 {
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	cols := m.colIndex[start:end]
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return m.values[start+k]
	}
	return 0
}

// Edges enumerates the upper triangle (u < v) in row-major order. This is
// the canonical edge discovery order used for deterministic tie-breaking in
// the topology analyzers.
func (m *Matrix) Edges() []Edge {
	edges := make([]Edge, 0, m.NumEdges())
	for i := 0; i < m.n; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			if j := m.colIndex[k]; j > i {
				edges = append(edges, Edge{U: i, V: j, Weight: m.values[k]})
			}
		}
	}
	return edges
}
