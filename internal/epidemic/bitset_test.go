package epidemic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsetSetGetCount(t *testing.T) {
	b := NewBitset(130)

	require.Equal(t, 130, b.Len())
	assert.Zero(t, b.Count())

	for _, i := range []int{0, 63, 64, 129} {
		b.Set(i)
		assert.True(t, b.Get(i))
	}
	assert.False(t, b.Get(1))
	assert.Equal(t, 4, b.Count())

	// Setting twice is idempotent.
	b.Set(0)
	assert.Equal(t, 4, b.Count())
}

func TestBitsetIndicesAndFloats(t *testing.T) {
	b := NewBitset(70)
	b.Set(3)
	b.Set(65)

	assert.Equal(t, []int{3, 65}, b.Indices())

	floats := b.Floats()
	require.Len(t, floats, 70)
	assert.Equal(t, 1.0, floats[3])
	assert.Equal(t, 1.0, floats[65])
	assert.Equal(t, 0.0, floats[0])
}

func TestBitsetCloneIsIndependent(t *testing.T) {
	b := NewBitset(10)
	b.Set(2)

	c := b.Clone()
	c.Set(5)

	assert.True(t, c.Get(2))
	assert.False(t, b.Get(5))
}
