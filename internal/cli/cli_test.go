package cli

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/PrincetonUniversity/shoal"
	"github.com/sirupsen/logrus"
)

func TestDefaultModelIsValid(t *testing.T) {
	m := DefaultModel
	c, err := m.Shoal()
	if err != nil {
		t.Fatal(err)
	}
	if m.Seed == 0 || c.Seed != m.Seed {
		t.Fatalf("seed not drawn: model %d, config %d", m.Seed, c.Seed)
	}
	if c.Bounds.Max.X != 20 || c.Bounds.Max.Z != 0 {
		t.Fatalf("bounds = %+v", c.Bounds)
	}
	if DefaultModel.Seed != 0 {
		t.Fatal("default model modified")
	}
}

func TestConfigKeepsZeroSeed(t *testing.T) {
	m := DefaultModel
	c, err := m.Config()
	if err != nil {
		t.Fatal(err)
	}
	if c.Seed != 0 || m.Seed != 0 {
		t.Fatalf("seed replaced: model %d, config %d", m.Seed, c.Seed)
	}
}

func TestShoalConvertsUnits(t *testing.T) {
	m := DefaultModel
	m.Seed = 7
	m.Dim = 3
	m.Strategy = "cone"
	m.VisionAngle = 90
	m.Perturbation = "magnitude"
	c, err := m.Shoal()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Interaction.VisionAngle-math.Pi/2) > 1e-15 {
		t.Fatalf("vision angle = %g rad", c.Interaction.VisionAngle)
	}
	if math.Abs(m.Aperture()-math.Pi/2) > 1e-15 {
		t.Fatalf("aperture = %g rad", m.Aperture())
	}
	if c.Interaction.Strategy != shoal.Cone || c.Contagion.Mode != shoal.MagnitudePreserving {
		t.Fatalf("strategy %v, mode %v", c.Interaction.Strategy, c.Contagion.Mode)
	}
	if c.Bounds.Max.Z != 20 || c.Seed != 7 {
		t.Fatalf("config = %+v", c)
	}

	m.Strategy = "radius"
	if m.Aperture() != 2*math.Pi {
		t.Fatalf("radius strategy aperture = %g", m.Aperture())
	}
}

func TestShoalRejects(t *testing.T) {
	m := DefaultModel
	m.Strategy = "voronoi"
	m.Perturbation = "gaussian"
	if _, err := m.Shoal(); !errors.Is(err, shoal.ErrInvalidConfiguration) {
		t.Fatalf("got %v, want ErrInvalidConfiguration", err)
	}
	m = DefaultModel
	m.MaxSpeed = 0
	if _, err := m.Shoal(); !errors.Is(err, shoal.ErrInvalidConfiguration) {
		t.Fatalf("got %v, want ErrInvalidConfiguration", err)
	}
}

func TestParseConfig(t *testing.T) {
	type config struct {
		Model
		Output string
	}
	path := filepath.Join(t.TempDir(), "conf.toml")
	src := `
Output = "out.h5"
SchoolSize = 12
Strategy = "nearest"
Typo = 3
`
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	conf := config{Model: DefaultModel}
	undecoded, err := ParseConfig(path, &conf)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Output != "out.h5" || conf.SchoolSize != 12 || conf.Strategy != "nearest" {
		t.Fatalf("decoded %+v", conf)
	}
	if conf.MaxSpeed != DefaultModel.MaxSpeed {
		t.Fatalf("default overwritten: %g", conf.MaxSpeed)
	}
	if !slices.Equal(undecoded, []string{"Typo"}) {
		t.Fatalf("undecoded = %v", undecoded)
	}

	if _, err := Args([]string{"cmd", "a", "b"}, "usage", &conf); err == nil {
		t.Fatal("accepted two arguments")
	}
	if _, err := Args([]string{"cmd"}, "usage", &conf); err != nil {
		t.Fatal(err)
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger("debug")
	if err != nil {
		t.Fatal(err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v", log.GetLevel())
	}
	if _, err := NewLogger("chatty"); err == nil {
		t.Fatal("accepted an unknown level")
	}
}
