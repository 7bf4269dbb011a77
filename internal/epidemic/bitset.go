// Package epidemic advances susceptible/infected state vectors tick-by-tick
// over the day's sparse contact matrix and keeps every run in an explicit
// registry. Only two compartments exist: a node is susceptible or infected,
// and infection never reverts.
package epidemic

import "math/bits"

// Bitset is a fixed-size bit vector over the dense node index space. The
// infected vector I is a Bitset; S is its complement, so S_i + I_i = 1 by
// construction.
type Bitset struct {
	words []uint64
	n     int
}

// NewBitset returns an all-zero bit vector of n bits.
func NewBitset(n int) *Bitset {
	return &Bitset{
		words: make([]uint64, (n+63)/64),
		n:     n,
	}
}

// Len returns the number of bits.
func (b *Bitset) Len() int {
	return b.n
}

// Set sets bit i.
func (b *Bitset) Set(i int) {
	b.words[i>>6] |= 1 << (uint(i) & 63)
}

// Get reports whether bit i is set.
func (b *Bitset) Get(i int) bool {
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	c := NewBitset(b.n)
	copy(c.words, b.words)
	return c
}

// Indices returns the set bit positions in ascending order.
func (b *Bitset) Indices() []int {
	out := make([]int, 0, b.Count())
	for i := 0; i < b.n; i++ {
		if b.Get(i) {
			out = append(out, i)
		}
	}
	return out
}

// Floats expands the bit vector to a float64 0/1 vector for the
// matrix-vector exposure product.
func (b *Bitset) Floats() []float64 {
	out := make([]float64, b.n)
	for i := 0; i < b.n; i++ {
		if b.Get(i) {
			out[i] = 1
		}
	}
	return out
}
