package shoal

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// A Tag describes the role of an agent for display purposes.
type Tag uint8

const (
	Normal Tag = iota
	Leader
	Contaminated
)

func (t Tag) String() string {
	switch t {
	case Normal:
		return "normal"
	case Leader:
		return "leader"
	case Contaminated:
		return "contaminated"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// An Agent is a simulated fish: a point with a velocity
// and a contamination state.
type Agent struct {
	Pos          r3.Vec // position
	Vel          r3.Vec // velocity
	Contaminated bool   // contamination never clears
	Tag          Tag
}

// Integrate moves the agent along its velocity for a duration dt.
func (a *Agent) Integrate(dt float64) {
	a.Pos = r3.Add(a.Pos, r3.Scale(dt, a.Vel))
}

// Reflect bounces the agent off the walls of b. On each axis where the
// agent is outside, it is put back on the wall and the corresponding
// velocity component changes sign. Overshoots are clamped, not resolved.
func (a *Agent) Reflect(b Bounds) {
	for d := 0; d < b.Dim; d++ {
		x, v := axis(a.Pos, d), axis(a.Vel, d)
		switch {
		case x < axis(b.Min, d):
			setAxis(&a.Pos, d, axis(b.Min, d))
			setAxis(&a.Vel, d, -v)
		case x > axis(b.Max, d):
			setAxis(&a.Pos, d, axis(b.Max, d))
			setAxis(&a.Vel, d, -v)
		}
	}
}

// SetVelocity sets the velocity of the agent, rescaling v to vmax
// if it is faster.
func (a *Agent) SetVelocity(v r3.Vec, vmax float64) {
	a.Vel = ClampNorm(v, vmax)
}

// Contaminate marks the agent as contaminated and derives its new velocity
// from src, the velocity of the contaminator, perturbed with noise of
// amplitude dV drawn from rng. Only the first dim components are perturbed.
// It returns false and does nothing if the agent is already contaminated.
func (a *Agent) Contaminate(src r3.Vec, dV float64, mode PerturbMode, dim int, rng *RNG) bool {
	if a.Contaminated {
		return false
	}
	a.Contaminated = true
	a.Tag = Contaminated

	switch mode {
	case ComponentWise:
		a.Vel = r3.Add(src, rng.Vec(dim, -dV, dV))
	case MagnitudePreserving:
		// a source at rest has no direction to keep
		if n := r3.Norm(src); n > 0 {
			a.Vel = r3.Scale(1+rng.Uniform(-dV, dV), src)
		}
	}
	return true
}
