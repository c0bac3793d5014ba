package shoal

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// RNG is a thin wrapper around math/rand/v2 for deterministic seeding.
// It is not safe for concurrent use.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// Uniform returns a number drawn uniformly in [min, max).
func (r *RNG) Uniform(min, max float64) float64 {
	return min + (max-min)*r.r.Float64()
}

// IntN returns a number drawn uniformly in [0, n).
func (r *RNG) IntN(n int) int {
	return r.r.IntN(n)
}

// Vec returns a vector whose first dim components are drawn uniformly
// in [min, max) and whose remaining components are zero.
func (r *RNG) Vec(dim int, min, max float64) r3.Vec {
	var v r3.Vec
	for d := 0; d < dim; d++ {
		setAxis(&v, d, r.Uniform(min, max))
	}
	return v
}

// InBox returns a point drawn uniformly inside b.
func (r *RNG) InBox(b Bounds) r3.Vec {
	var v r3.Vec
	for d := 0; d < b.Dim; d++ {
		setAxis(&v, d, r.Uniform(axis(b.Min, d), axis(b.Max, d)))
	}
	return v
}
