// Package shoal runs simulations of fish schools made of point agents.
//
// A fixed number of agents move in a 2D or 3D box with reflective walls.
// Each agent reacts to its neighbors following the three-zone rules of Aoki:
// it is repelled by very close neighbors, aligns with neighbors at medium
// range and is attracted by more distant ones. Neighbors are chosen by
// distance, among the k nearest, or inside a forward visual cone.
// On top of that, a behavior contamination spreads from a leader
// to every agent that comes close enough to a contaminated one.
//
// All agents are updated synchronously: during a tick every agent reacts
// to the state of the school at the beginning of that tick.
package shoal

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// State is the lifecycle state of a Simulation.
type State int

const (
	Uninitialized State = iota
	Ready
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// AgentState is a read-only copy of the state of an agent.
type AgentState struct {
	Pos          r3.Vec
	Vel          r3.Vec
	Contaminated bool
	Tag          Tag
}

// A Simulation contains all the state and parameters of a simulation.
// The school is owned by the simulation while a tick is in progress.
type Simulation struct {
	School []Agent
	Conf   Config

	// Log receives debug events. It defaults to a logger that discards everything.
	Log logrus.FieldLogger

	state    State
	ticks    int
	infected int

	rng       *RNG
	classify  Classifier
	propagate *Propagator
	next      []r3.Vec // velocities computed during a tick
	points    []r3.Vec // positions handed to the index
}

// New validates conf and returns a simulation in the Ready state whose
// agents are drawn uniformly in the bounds and velocity range of conf.
func New(conf Config) (*Simulation, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	rng := NewRNG(conf.Seed)
	school := make([]Agent, conf.Size)
	for i := range school {
		school[i].Pos = rng.InBox(conf.Bounds)
		school[i].Vel = rng.Vec(conf.Bounds.Dim, conf.Velocity.Min, conf.Velocity.Max)
	}
	return setup(conf, school, rng), nil
}

// FromSchool validates conf and returns a simulation in the Ready state
// that owns school. The population size is taken from school.
func FromSchool(conf Config, school []Agent) (*Simulation, error) {
	conf.Size = len(school)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return setup(conf, school, NewRNG(conf.Seed)), nil
}

// setup wires a validated configuration and seeds the leader.
func setup(conf Config, school []Agent, rng *RNG) *Simulation {
	s := &Simulation{
		School:   school,
		Conf:     conf,
		Log:      discard,
		state:    Ready,
		rng:      rng,
		classify: NewClassifier(conf.Interaction),
		propagate: &Propagator{
			Contagion: conf.Contagion,
			Dim:       conf.Bounds.Dim,
			Vmax:      conf.Interaction.Vmax,
			RNG:       rng,
		},
		next:   make([]r3.Vec, len(school)),
		points: make([]r3.Vec, len(school)),
	}
	for i := range s.School {
		s.School[i].SetVelocity(s.School[i].Vel, conf.Interaction.Vmax)
		if s.School[i].Contaminated {
			s.infected++
		}
	}
	if conf.Contagion.Period > 0 {
		leader := conf.Contagion.Leader
		if leader < 0 {
			leader = rng.IntN(len(school))
		}
		if !s.School[leader].Contaminated {
			s.infected++
		}
		s.propagate.Seed(s.School, leader)
	}
	return s
}

// discard is the default logger of a simulation.
var discard = &logrus.Logger{Out: io.Discard, Formatter: new(logrus.TextFormatter), Hooks: make(logrus.LevelHooks), Level: logrus.PanicLevel}

func (s *Simulation) logger() logrus.FieldLogger {
	if s.Log == nil {
		return discard
	}
	return s.Log
}

// State returns the lifecycle state of s.
func (s *Simulation) State() State { return s.state }

// Ticks returns the number of ticks run so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Infected returns the number of contaminated agents.
func (s *Simulation) Infected() int { return s.infected }

// Stop stops the simulation. Further ticks fail with ErrNotRunning.
func (s *Simulation) Stop() {
	if s.state != Uninitialized {
		s.setState(Stopped)
	}
}

func (s *Simulation) setState(st State) {
	if s.state == st {
		return
	}
	s.logger().WithFields(logrus.Fields{"from": s.state, "to": st, "tick": s.ticks}).Debug("state change")
	s.state = st
}

// Index returns a fresh index over the current positions of the school.
func (s *Simulation) Index() *Index {
	for i := range s.School {
		s.points[i] = s.School[i].Pos
	}
	return NewIndex(s.points, s.Conf.Bounds.Dim)
}

// Tick advances the simulation by a duration dt.
// Every agent classifies its neighbors and computes its new velocity from
// the state of the school before the tick. Then all agents move, bounce
// off the walls, and, every Period ticks, contamination spreads.
func (s *Simulation) Tick(dt float64) error {
	switch s.state {
	case Ready:
		s.setState(Running)
	case Running:
	default:
		return fmt.Errorf("%w (state %v)", ErrNotRunning, s.state)
	}

	idx := s.Index()
	if err := s.forces(idx); err != nil {
		return err
	}
	for i := range s.School {
		a := &s.School[i]
		a.SetVelocity(s.next[i], s.Conf.Interaction.Vmax)
		a.Integrate(dt)
		a.Reflect(s.Conf.Bounds)
	}

	if p := s.Conf.Contagion.Period; p > 0 && s.ticks%p == 0 {
		for _, inf := range s.propagate.Propagate(s.School, s.Index()) {
			s.infected++
			s.logger().WithFields(logrus.Fields{"tick": s.ticks, "agent": inf.Agent, "source": inf.Source}).Debug("contaminated")
		}
	}
	s.ticks++
	return nil
}

// forces computes the new velocity of every agent into s.next.
// Agents are split into contiguous chunks, one per worker; each worker
// only reads the school and only writes its own part of s.next.
func (s *Simulation) forces(idx *Index) error {
	in := s.Conf.Interaction
	step := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			b := s.classify.Classify(i, s.School, idx)
			s.next[i] = StepVelocity(s.School[i].Vel, in.Vmax, in.Force(i, s.School, b))
		}
	}

	n, w := len(s.School), s.Conf.Workers
	if w <= 1 || n < 2*w {
		step(0, n)
		return nil
	}
	var g errgroup.Group
	g.SetLimit(w)
	chunk := (n + w - 1) / w
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			step(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// Snapshot returns a copy of the state of every agent, in school order.
func (s *Simulation) Snapshot() []AgentState {
	out := make([]AgentState, len(s.School))
	for i, a := range s.School {
		out[i] = AgentState{Pos: a.Pos, Vel: a.Vel, Contaminated: a.Contaminated, Tag: a.Tag}
	}
	return out
}
