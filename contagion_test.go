package shoal

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func propagator(seed int64) *Propagator {
	return &Propagator{
		Contagion: Contagion{Distance: 1.5, Period: 1, Scale: 0.5, Mode: ComponentWise},
		Dim:       2,
		Vmax:      10,
		RNG:       NewRNG(seed),
	}
}

func indexOf(school []Agent) *Index {
	pos := make([]r3.Vec, len(school))
	for i, a := range school {
		pos[i] = a.Pos
	}
	return NewIndex(pos, 2)
}

func TestSeedTagsLeader(t *testing.T) {
	school := schoolAt(r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 1})
	inf := propagator(1).Seed(school, 1)
	if inf != (Infection{Agent: 1, Source: 1}) {
		t.Fatalf("infection = %+v", inf)
	}
	if !school[1].Contaminated || school[1].Tag != Leader {
		t.Fatalf("leader = %+v", school[1])
	}
	if school[0].Contaminated {
		t.Fatal("seeding contaminated another agent")
	}
}

func TestPropagateOneHopPerCall(t *testing.T) {
	// a chain with links of length 1: only the direct neighbor of the
	// leader is reached by the first sweep
	school := schoolAt(r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 1}, r3.Vec{X: 2}, r3.Vec{X: 3})
	p := propagator(1)
	p.Seed(school, 0)

	got := p.Propagate(school, indexOf(school))
	if len(got) != 1 || got[0] != (Infection{Agent: 1, Source: 0}) {
		t.Fatalf("first sweep = %+v", got)
	}
	got = p.Propagate(school, indexOf(school))
	if len(got) != 1 || got[0] != (Infection{Agent: 2, Source: 1}) {
		t.Fatalf("second sweep = %+v", got)
	}
	p.Propagate(school, indexOf(school))
	for i, a := range school {
		if !a.Contaminated {
			t.Fatalf("agent %d still clean after three sweeps", i)
		}
	}
}

func TestPropagateLowestIndexSourceWins(t *testing.T) {
	school := []Agent{
		{Pos: r3.Vec{X: 1}, Vel: r3.Vec{Y: 5}, Contaminated: true},
		{Pos: r3.Vec{}, Vel: r3.Vec{X: 1}},
		{Pos: r3.Vec{X: -0.1}, Vel: r3.Vec{Y: -5}, Contaminated: true},
	}
	p := propagator(1)
	p.Scale = 0
	got := p.Propagate(school, indexOf(school))
	if len(got) != 1 || got[0].Source != 0 {
		t.Fatalf("infections = %+v, want source 0", got)
	}
	if school[1].Vel != (r3.Vec{Y: 5}) {
		t.Fatalf("velocity = %v, want the velocity of agent 0", school[1].Vel)
	}
}

func TestPropagateStrictDistanceAndClamp(t *testing.T) {
	school := []Agent{
		{Pos: r3.Vec{}, Vel: r3.Vec{X: 30}, Contaminated: true},
		{Pos: r3.Vec{X: 1.5}},
		{Pos: r3.Vec{Y: 1}},
	}
	got := propagator(1).Propagate(school, indexOf(school))
	if len(got) != 1 || got[0].Agent != 2 {
		t.Fatalf("infections = %+v, want only agent 2", got)
	}
	if n := r3.Norm(school[2].Vel); n > 10+1e-9 {
		t.Fatalf("speed %g exceeds Vmax", n)
	}
}

func TestPropagateWithoutContaminated(t *testing.T) {
	school := schoolAt(r3.Vec{X: 1}, r3.Vec{}, r3.Vec{X: 0.1})
	if got := propagator(1).Propagate(school, indexOf(school)); got != nil {
		t.Fatalf("infections = %+v, want none", got)
	}
}
