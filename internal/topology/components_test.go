package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecampos-dev/epinet/internal/network"
)

func TestConnectedComponentsPartition(t *testing.T) {
	// 0-1-2 | 3-4 | 5 isolated.
	m := network.NewMatrix(6, []network.Edge{
		{U: 0, V: 1, Weight: 1},
		{U: 1, V: 2, Weight: 1},
		{U: 3, V: 4, Weight: 1},
	})

	components := ConnectedComponents(m)
	require.Len(t, components, 3)

	assert.Equal(t, []int{0, 1, 2}, components[0].Nodes)
	assert.Equal(t, 3, components[0].Size)
	assert.InDelta(t, 1.0/3.0, components[0].Priority, 1e-12)

	assert.Equal(t, []int{3, 4}, components[1].Nodes)
	assert.Equal(t, []int{5}, components[2].Nodes)
	assert.Equal(t, 1.0, components[2].Priority)

	// Every node appears exactly once.
	seen := make(map[int]int)
	for _, c := range components {
		for _, v := range c.Nodes {
			seen[v]++
		}
	}
	assert.Len(t, seen, 6)
	for v, count := range seen {
		assert.Equal(t, 1, count, "node %d", v)
	}
}

func TestConnectedComponentsTieBreak(t *testing.T) {
	// Two components of size 2: ties order by smallest leading index.
	m := network.NewMatrix(4, []network.Edge{
		{U: 2, V: 3, Weight: 1},
		{U: 0, V: 1, Weight: 1},
	})

	components := ConnectedComponents(m)
	require.Len(t, components, 2)
	assert.Equal(t, []int{0, 1}, components[0].Nodes)
	assert.Equal(t, []int{2, 3}, components[1].Nodes)
}

func TestConnectedComponentsEmptyGraph(t *testing.T) {
	components := ConnectedComponents(network.NewMatrix(3, nil))
	require.Len(t, components, 3)
	for _, c := range components {
		assert.Equal(t, 1, c.Size)
		assert.Equal(t, 1.0, c.Priority)
	}
}

func TestComponentsOfSubset(t *testing.T) {
	// Path 0-1-2-3-4. Restricting to {0, 1, 3} cuts the path at 2.
	m := network.NewMatrix(5, []network.Edge{
		{U: 0, V: 1, Weight: 1},
		{U: 1, V: 2, Weight: 1},
		{U: 2, V: 3, Weight: 1},
		{U: 3, V: 4, Weight: 1},
	})

	components := ComponentsOf(m, []int{0, 1, 3})
	require.Len(t, components, 2)
	assert.Equal(t, []int{0, 1}, components[0].Nodes)
	assert.Equal(t, []int{3}, components[1].Nodes)
}

func TestComponentsOfEmptySubset(t *testing.T) {
	m := network.NewMatrix(3, []network.Edge{{U: 0, V: 1, Weight: 1}})
	assert.Empty(t, ComponentsOf(m, nil))
}
