package topology

import (
	"sort"

	"github.com/ecampos-dev/epinet/internal/network"
)

// ConnectedComponents partitions all N indices into weakly connected
// components via breadth-first traversal of the undirected adjacency.
// Every index appears in exactly one component; isolated nodes form
// singleton components. Components are returned largest first, ties broken
// by smallest contained index, and each carries the quarantine priority
// 1/size.
func ConnectedComponents(m *network.Matrix) []Component {
	n := m.NumNodes()
	visited := make([]bool, n)
	var components []Component

	queue := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue = append(queue[:0], start)
		var nodes []int
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			nodes = append(nodes, v)
			cols, _ := m.Neighbors(v)
			for _, w := range cols {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
		components = append(components, Component{
			Nodes:    nodes,
			Size:     len(nodes),
			Priority: 1 / float64(len(nodes)),
		})
	}

	sortComponents(components)
	return components
}

// ComponentsOf restricts the component analysis to a subset of indices,
// e.g. the infected subpopulation at the end of a run. Edges to nodes
// outside the subset are ignored.
func ComponentsOf(m *network.Matrix, subset []int) []Component {
	include := make(map[int]bool, len(subset))
	for _, idx := range subset {
		include[idx] = true
	}

	visited := make(map[int]bool, len(subset))
	var components []Component
	for _, start := range subset {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int{start}
		var nodes []int
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			nodes = append(nodes, v)
			cols, _ := m.Neighbors(v)
			for _, w := range cols {
				if include[w] && !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
		components = append(components, Component{
			Nodes:    nodes,
			Size:     len(nodes),
			Priority: 1 / float64(len(nodes)),
		})
	}

	sortComponents(components)
	return components
}

func sortComponents(components []Component) {
	sort.SliceStable(components, func(i, j int) bool {
		if components[i].Size != components[j].Size {
			return components[i].Size > components[j].Size
		}
		return components[i].Nodes[0] < components[j].Nodes[0]
	})
}
