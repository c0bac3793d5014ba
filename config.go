package shoal

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfiguration is returned (wrapped) when a Config cannot be used
// to build a simulation. No partial state is created in that case.
var ErrInvalidConfiguration = errors.New("shoal: invalid configuration")

// ErrNotRunning is returned when ticking a simulation that is stopped
// or was never initialized.
var ErrNotRunning = errors.New("shoal: simulation is not running")

// Strategy selects how the neighbors of an agent are chosen.
type Strategy int

const (
	// Radius considers every agent closer than the attraction radius.
	Radius Strategy = iota
	// Nearest considers only the K nearest agents, whatever the density.
	Nearest
	// Cone considers agents within the attraction radius that lie inside
	// the visual cone centered on the heading of the focal agent.
	Cone
)

func (s Strategy) String() string {
	switch s {
	case Radius:
		return "radius"
	case Nearest:
		return "nearest"
	case Cone:
		return "cone"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy returns the strategy named s.
func ParseStrategy(s string) (Strategy, error) {
	for _, v := range []Strategy{Radius, Nearest, Cone} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, s)
}

// PerturbMode selects how a newly contaminated agent inherits the velocity
// of its contaminator.
type PerturbMode int

const (
	// ComponentWise adds uniform noise in [-dV, dV) to each component.
	ComponentWise PerturbMode = iota
	// MagnitudePreserving keeps the direction and scales the magnitude
	// by a factor drawn uniformly in [1-dV, 1+dV).
	MagnitudePreserving
)

func (m PerturbMode) String() string {
	switch m {
	case ComponentWise:
		return "component"
	case MagnitudePreserving:
		return "magnitude"
	}
	return fmt.Sprintf("PerturbMode(%d)", int(m))
}

// ParsePerturbMode returns the perturbation mode named s.
func ParsePerturbMode(s string) (PerturbMode, error) {
	for _, v := range []PerturbMode{ComponentWise, MagnitudePreserving} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown perturbation mode %q", ErrInvalidConfiguration, s)
}

// Interaction contains the parameters of the three-zone behavioral rules.
type Interaction struct {
	Strategy Strategy

	Repulsion  float64 // radius of the zone of repulsion
	Alignment  float64 // outer radius of the zone of alignment
	Attraction float64 // outer radius of the zone of attraction

	KRepulsion  float64 // gain of each repulsion contribution
	KAlignment  float64 // gain of the mean neighbor velocity
	KAttraction float64 // gain of each attraction contribution

	Vmax float64 // maximum speed

	K           int     // number of neighbors (Nearest only)
	VisionAngle float64 // full aperture of the visual cone in radians (Cone only)
}

// Contagion contains the parameters of behavior contamination.
type Contagion struct {
	Distance float64     // contamination happens strictly below this distance
	Period   int         // ticks between propagations, 0 disables contamination
	Scale    float64     // dV, amplitude of the velocity perturbation
	Mode     PerturbMode // how the perturbation is applied
	Leader   int         // index of the seeded agent, negative to draw one at random
}

// Range is an interval of values.
type Range struct {
	Min float64
	Max float64
}

// Config contains everything needed to initialize a simulation.
type Config struct {
	Size     int    // number of agents
	Bounds   Bounds // domain, its Dim sets the dimension of the simulation
	Velocity Range  // range of each initial velocity component
	Seed     int64  // seed of the PRNG

	Interaction Interaction
	Contagion   Contagion

	// Workers is the number of goroutines computing forces during a tick.
	// 0 or 1 computes them on the calling goroutine.
	Workers int
}

// Validate reports every problem found in c.
// All returned errors wrap ErrInvalidConfiguration.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidConfiguration}, args...)...))
	}

	if c.Size <= 0 {
		bad("population size %d must be positive", c.Size)
	}
	if c.Bounds.Dim != 2 && c.Bounds.Dim != 3 {
		bad("dimension %d must be 2 or 3", c.Bounds.Dim)
	} else {
		for d := 0; d < c.Bounds.Dim; d++ {
			if axis(c.Bounds.Min, d) > axis(c.Bounds.Max, d) {
				bad("bounds min %g exceeds max %g on axis %d", axis(c.Bounds.Min, d), axis(c.Bounds.Max, d), d)
			}
		}
	}
	if c.Velocity.Min > c.Velocity.Max {
		bad("velocity range [%g, %g] is inverted", c.Velocity.Min, c.Velocity.Max)
	}

	in := c.Interaction
	if !(in.Repulsion < in.Alignment && in.Alignment < in.Attraction) {
		bad("radii must increase: repulsion %g, alignment %g, attraction %g", in.Repulsion, in.Alignment, in.Attraction)
	}
	if in.Repulsion < 0 {
		bad("repulsion radius %g is negative", in.Repulsion)
	}
	if !(in.Vmax > 0) {
		bad("maximum speed %g must be positive", in.Vmax)
	}
	switch in.Strategy {
	case Radius:
	case Nearest:
		if in.K < 1 {
			bad("nearest neighbor count %d must be at least 1", in.K)
		}
	case Cone:
		if !(in.VisionAngle > 0 && in.VisionAngle <= 2*math.Pi) {
			bad("vision angle %g must be in (0, 2π]", in.VisionAngle)
		}
	default:
		bad("unknown strategy %v", in.Strategy)
	}

	ct := c.Contagion
	if ct.Distance < 0 {
		bad("contamination distance %g is negative", ct.Distance)
	}
	if ct.Period < 0 {
		bad("propagation period %d is negative", ct.Period)
	}
	if ct.Scale < 0 {
		bad("perturbation scale %g is negative", ct.Scale)
	}
	if ct.Mode != ComponentWise && ct.Mode != MagnitudePreserving {
		bad("unknown perturbation mode %v", ct.Mode)
	}
	if ct.Period > 0 && ct.Leader >= c.Size && c.Size > 0 {
		bad("leader %d is out of range for %d agents", ct.Leader, c.Size)
	}

	if c.Workers < 0 {
		bad("worker count %d is negative", c.Workers)
	}
	return errors.Join(errs...)
}
