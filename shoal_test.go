package shoal

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func testConf(dim int) Config {
	return Config{
		Size:        80,
		Bounds:      box(dim, 20),
		Velocity:    Range{Min: -1, Max: 1},
		Seed:        42,
		Interaction: aoki,
		Contagion: Contagion{
			Distance: 1.5,
			Period:   1,
			Scale:    0.1,
			Mode:     ComponentWise,
			Leader:   -1,
		},
	}
}

func TestSingleAgentBounce(t *testing.T) {
	conf := testConf(2)
	conf.Bounds = box(2, 10)
	conf.Interaction.Vmax = 10
	conf.Contagion = Contagion{}
	s, err := FromSchool(conf, []Agent{{Pos: r3.Vec{X: 9.9, Y: 5}, Vel: r3.Vec{X: 5}}})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(0.1); err != nil {
		t.Fatal(err)
	}
	a := s.School[0]
	if a.Pos != (r3.Vec{X: 10, Y: 5}) || a.Vel != (r3.Vec{X: -5}) {
		t.Fatalf("got pos %v vel %v, want (10, 5) and (-5, 0)", a.Pos, a.Vel)
	}
}

func TestTickUpdatesSimultaneously(t *testing.T) {
	conf := testConf(2)
	conf.Interaction.KRepulsion = 0
	conf.Interaction.KAlignment = 1
	conf.Interaction.KAttraction = 0
	conf.Interaction.Vmax = 10
	conf.Contagion = Contagion{}
	s, err := FromSchool(conf, []Agent{
		{Pos: r3.Vec{X: 5, Y: 5}, Vel: r3.Vec{X: 1}},
		{Pos: r3.Vec{X: 6.5, Y: 5}, Vel: r3.Vec{Y: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Tick(0); err != nil {
		t.Fatal(err)
	}
	want := r3.Vec{X: 1, Y: 2}
	for i, a := range s.School {
		if a.Vel != want {
			t.Fatalf("agent %d velocity = %v, want %v", i, a.Vel, want)
		}
	}
}

func TestTickWithWorkers(t *testing.T) {
	conf := testConf(3)
	conf.Workers = 4
	s, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	for tick := 0; tick < 5; tick++ {
		if err := s.Tick(0.1); err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
	}
	if s.Ticks() != 5 {
		t.Fatalf("ticks = %d, want 5", s.Ticks())
	}
}

func TestTickKeepsInvariants(t *testing.T) {
	for _, strategy := range []Strategy{Radius, Nearest, Cone} {
		for _, dim := range []int{2, 3} {
			conf := testConf(dim)
			conf.Interaction.Strategy = strategy
			s, err := New(conf)
			if err != nil {
				t.Fatal(err)
			}
			prev := s.Infected()
			for tick := 0; tick < 50; tick++ {
				if err := s.Tick(0.5); err != nil {
					t.Fatal(err)
				}
				for i, a := range s.School {
					if n := r3.Norm(a.Vel); n > conf.Interaction.Vmax+1e-9 {
						t.Fatalf("%v %dD tick %d: agent %d speed %g", strategy, dim, tick, i, n)
					}
					if !conf.Bounds.Contains(a.Pos) {
						t.Fatalf("%v %dD tick %d: agent %d out of bounds at %v", strategy, dim, tick, i, a.Pos)
					}
					if dim == 2 && (a.Pos.Z != 0 || a.Vel.Z != 0) {
						t.Fatalf("2D agent %d left the plane: %+v", i, a)
					}
				}
				if n := s.Infected(); n < prev {
					t.Fatalf("%v %dD tick %d: infected went from %d to %d", strategy, dim, tick, prev, n)
				} else {
					prev = n
				}
			}
		}
	}
}

func TestInfectedMatchesSchool(t *testing.T) {
	s, err := New(testConf(2))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if err := s.Tick(0.5); err != nil {
			t.Fatal(err)
		}
	}
	var n, leaders int
	for _, a := range s.School {
		if a.Contaminated {
			n++
		}
		if a.Tag == Leader {
			leaders++
		}
	}
	if n != s.Infected() {
		t.Fatalf("Infected() = %d, school has %d", s.Infected(), n)
	}
	if leaders != 1 {
		t.Fatalf("%d leaders, want 1", leaders)
	}
}

func TestFullContamination(t *testing.T) {
	// a tight cluster at rest is a connected proximity graph
	var school []Agent
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			school = append(school, Agent{Pos: r3.Vec{X: 5 + float64(i), Y: 5 + float64(j)}})
		}
	}
	conf := testConf(2)
	conf.Interaction.KRepulsion = 0
	conf.Interaction.KAlignment = 0
	conf.Interaction.KAttraction = 0
	conf.Contagion.Scale = 0
	conf.Contagion.Leader = 12
	s, err := FromSchool(conf, school)
	if err != nil {
		t.Fatal(err)
	}
	for s.Infected() < len(school) {
		if s.Ticks() > 10 {
			t.Fatalf("only %d of %d contaminated after %d ticks", s.Infected(), len(school), s.Ticks())
		}
		if err := s.Tick(0.1); err != nil {
			t.Fatal(err)
		}
	}
	if s.School[12].Tag != Leader {
		t.Fatalf("leader tag = %v", s.School[12].Tag)
	}
}

func TestPropagationPeriod(t *testing.T) {
	school := []Agent{{Pos: r3.Vec{X: 5, Y: 5}}, {Pos: r3.Vec{X: 6, Y: 5}}, {Pos: r3.Vec{X: 7, Y: 5}}}
	conf := testConf(2)
	conf.Interaction.KRepulsion = 0
	conf.Interaction.KAlignment = 0
	conf.Interaction.KAttraction = 0
	conf.Contagion.Scale = 0
	conf.Contagion.Period = 3
	conf.Contagion.Leader = 0
	s, err := FromSchool(conf, school)
	if err != nil {
		t.Fatal(err)
	}
	// propagation runs after ticks 0, 3, 6...
	want := []int{2, 2, 2, 3}
	for tick, n := range want {
		if err := s.Tick(0.1); err != nil {
			t.Fatal(err)
		}
		if s.Infected() != n {
			t.Fatalf("after tick %d: %d infected, want %d", tick, s.Infected(), n)
		}
	}
}

func TestNoContagion(t *testing.T) {
	conf := testConf(2)
	conf.Contagion.Period = 0
	s, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if err := s.Tick(0.5); err != nil {
			t.Fatal(err)
		}
	}
	if s.Infected() != 0 {
		t.Fatalf("%d infected with contagion disabled", s.Infected())
	}
}

func run(t *testing.T, conf Config, ticks int) []AgentState {
	t.Helper()
	s, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < ticks; i++ {
		if err := s.Tick(0.5); err != nil {
			t.Fatal(err)
		}
	}
	return s.Snapshot()
}

func TestDeterminism(t *testing.T) {
	conf := testConf(3)
	a := run(t, conf, 30)
	b := run(t, conf, 30)
	conf.Workers = 4
	c := run(t, conf, 30)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d differs between identical runs: %+v != %+v", i, a[i], b[i])
		}
		if a[i] != c[i] {
			t.Fatalf("agent %d differs with 4 workers: %+v != %+v", i, a[i], c[i])
		}
	}

	conf.Seed++
	d := run(t, conf, 30)
	same := true
	for i := range a {
		same = same && a[i] == d[i]
	}
	if same {
		t.Fatal("different seeds gave identical runs")
	}
}

func TestLifecycle(t *testing.T) {
	var zero Simulation
	if err := zero.Tick(1); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("zero simulation: got %v, want ErrNotRunning", err)
	}

	s, err := New(testConf(2))
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != Ready {
		t.Fatalf("state = %v, want ready", s.State())
	}
	if err := s.Tick(1); err != nil {
		t.Fatal(err)
	}
	if s.State() != Running || s.Ticks() != 1 {
		t.Fatalf("state = %v after %d ticks", s.State(), s.Ticks())
	}
	s.Stop()
	if err := s.Tick(1); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("stopped simulation: got %v, want ErrNotRunning", err)
	}
	if s.State() != Stopped || s.Ticks() != 1 {
		t.Fatalf("state = %v after %d ticks", s.State(), s.Ticks())
	}
}

func TestNewInvalid(t *testing.T) {
	conf := testConf(2)
	conf.Interaction.Alignment = conf.Interaction.Attraction
	s, err := New(conf)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("got %v, want ErrInvalidConfiguration", err)
	}
	if s != nil {
		t.Fatal("invalid configuration returned a simulation")
	}
	if _, err := FromSchool(testConf(2), nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("empty school: got %v, want ErrInvalidConfiguration", err)
	}
}

func TestInitialSchool(t *testing.T) {
	conf := testConf(3)
	conf.Contagion.Period = 0
	conf.Velocity = Range{Min: 0.2, Max: 0.5}
	s, err := New(conf)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.School) != conf.Size {
		t.Fatalf("school size %d, want %d", len(s.School), conf.Size)
	}
	for i, a := range s.School {
		if !conf.Bounds.Contains(a.Pos) {
			t.Fatalf("agent %d starts out of bounds at %v", i, a.Pos)
		}
		for _, v := range []float64{a.Vel.X, a.Vel.Y, a.Vel.Z} {
			if v < 0.2 || v > 0.5 {
				t.Fatalf("agent %d velocity %v outside range", i, a.Vel)
			}
		}
	}
}

func TestVelocityClampedAtSetup(t *testing.T) {
	conf := testConf(2)
	conf.Contagion = Contagion{}
	s, err := FromSchool(conf, []Agent{{Pos: r3.Vec{X: 1, Y: 1}, Vel: r3.Vec{X: 30, Y: 40}}})
	if err != nil {
		t.Fatal(err)
	}
	if n := r3.Norm(s.School[0].Vel); math.Abs(n-conf.Interaction.Vmax) > 1e-12 {
		t.Fatalf("speed %g, want %g", n, conf.Interaction.Vmax)
	}
}

func BenchmarkTick(b *testing.B) {
	for _, workers := range []int{1, 4} {
		conf := testConf(3)
		conf.Size = 1000
		conf.Bounds = box(3, 50)
		conf.Workers = workers
		s, err := New(conf)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(fmt.Sprintf("%v/workers=%d", conf.Interaction.Strategy, workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := s.Tick(0.1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
