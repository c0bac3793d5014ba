package shoal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// axis returns the d-th component of v (0: X, 1: Y, 2: Z).
func axis(v r3.Vec, d int) float64 {
	switch d {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// setAxis sets the d-th component of v.
func setAxis(v *r3.Vec, d int, x float64) {
	switch d {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
}

// Dist returns the Euclidean distance between a and b.
// It is computed exactly like the distances reported by Index.
func Dist(a, b r3.Vec) float64 {
	return math.Sqrt(r3.Norm2(r3.Sub(a, b)))
}

// Unit returns v scaled to unit length, or the zero vector if v has zero length.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// ClampNorm returns v rescaled to length max when it is longer than max,
// and v unchanged otherwise.
func ClampNorm(v r3.Vec, max float64) r3.Vec {
	n := r3.Norm(v)
	if n <= max {
		return v
	}
	return r3.Scale(max/n, v)
}

// angle returns the angle in radians between u and v, clamping
// the cosine to [-1, 1] to absorb rounding errors.
// Both vectors must be of unit length.
func angle(u, v r3.Vec) float64 {
	return math.Acos(math.Max(-1, math.Min(1, r3.Dot(u, v))))
}

// Bounds is an axis-aligned box in Dim dimensions.
// Components beyond Dim are ignored and kept at zero.
type Bounds struct {
	Dim int
	Min r3.Vec
	Max r3.Vec
}

// Contains reports whether p lies inside b (walls included).
func (b Bounds) Contains(p r3.Vec) bool {
	for d := 0; d < b.Dim; d++ {
		x := axis(p, d)
		if x < axis(b.Min, d) || x > axis(b.Max, d) {
			return false
		}
	}
	return true
}

// Size returns the extent of b along each axis.
func (b Bounds) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}
