package shoal

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Repulsion returns the push on an agent at self away from an agent
// at other: a vector of length k pointing from other to self.
// It is zero if both positions coincide.
func Repulsion(self, other r3.Vec, k float64) r3.Vec {
	return r3.Scale(k, Unit(r3.Sub(self, other)))
}

// Alignment returns k times the mean of vels, or zero if vels is empty.
func Alignment(vels []r3.Vec, k float64) r3.Vec {
	if len(vels) == 0 {
		return r3.Vec{}
	}
	var sum r3.Vec
	for _, v := range vels {
		sum = r3.Add(sum, v)
	}
	return r3.Scale(k/float64(len(vels)), sum)
}

// Attraction returns the pull on an agent at self toward an agent
// at other: a vector of length k pointing from self to other.
// It is zero if both positions coincide.
func Attraction(self, other r3.Vec, k float64) r3.Vec {
	return r3.Scale(k, Unit(r3.Sub(other, self)))
}

// StepVelocity adds forces to old and clamps the result to vmax.
func StepVelocity(old r3.Vec, vmax float64, forces ...r3.Vec) r3.Vec {
	v := old
	for _, f := range forces {
		v = r3.Add(v, f)
	}
	return ClampNorm(v, vmax)
}

// Force returns the sum of the contributions of all neighbors in b
// on the agent at index focal.
func (in Interaction) Force(focal int, school []Agent, b Bands) r3.Vec {
	p := school[focal].Pos
	var f r3.Vec
	for _, j := range b.Repulsion {
		f = r3.Add(f, Repulsion(p, school[j].Pos, in.KRepulsion))
	}
	if len(b.Alignment) > 0 {
		vels := make([]r3.Vec, len(b.Alignment))
		for i, j := range b.Alignment {
			vels[i] = school[j].Vel
		}
		f = r3.Add(f, Alignment(vels, in.KAlignment))
	}
	for _, j := range b.Attraction {
		f = r3.Add(f, Attraction(p, school[j].Pos, in.KAttraction))
	}
	return f
}
