package topology

import "github.com/ecampos-dev/epinet/internal/network"

// CentralityScores computes degree, betweenness, and closeness centrality
// for every node.
//
// Degree is deg(v)/(n-1). Betweenness and closeness use unweighted
// (hop-count) shortest paths: betweenness follows Brandes' accumulation,
// normalized by 1/((n-1)(n-2)) so scores land in [0,1]; closeness is the
// inverse of the summed hop distances from v to the nodes it can reach.
// Nodes in other components are excluded from the sum rather than treated
// as infinite-distance contributors, and an isolated node scores 0.
//
// Complexity: O(N*K) time, O(N+K) space per source.
func CentralityScores(m *network.Matrix) CentralityResult {
	n := m.NumNodes()
	result := CentralityResult{
		Degree:      make([]float64, n),
		Betweenness: make([]float64, n),
		Closeness:   make([]float64, n),
	}
	if n <= 1 {
		return result
	}

	for v := 0; v < n; v++ {
		result.Degree[v] = float64(m.Degree(v)) / float64(n-1)
	}

	// Brandes' algorithm, one BFS per source. The accumulation visits
	// every unordered pair twice on an undirected graph; the n > 2
	// normalization below folds that factor in.
	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		stack = stack[:0]
		queue = queue[:0]
		for i := 0; i < n; i++ {
			dist[i] = -1
			sigma[i] = 0
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		dist[s] = 0
		sigma[s] = 1
		queue = append(queue, s)

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			cols, _ := m.Neighbors(v)
			for _, w := range cols {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		var distSum int
		for _, d := range dist {
			if d > 0 {
				distSum += d
			}
		}
		if distSum > 0 {
			result.Closeness[s] = 1 / float64(distSum)
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				result.Betweenness[w] += delta[w]
			}
		}
	}

	if n > 2 {
		scale := 1 / (float64(n-1) * float64(n-2))
		for v := range result.Betweenness {
			result.Betweenness[v] *= scale
		}
	}
	return result
}
