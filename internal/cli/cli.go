// Package cli holds what the shoal commands share: the model parameters
// read from TOML config files, logging setup and fatal error reporting.
package cli

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/PrincetonUniversity/shoal"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// Model holds the parameters of a simulation as written in config files.
// Commands embed it in their own config.
type Model struct {
	SchoolSize int   // number of agents
	Seed       int64 // seed of the PRNG, 0 draws one from the clock
	Workers    int   // goroutines computing forces, 0 or 1 for none

	// Domain parameters
	Dim        int     // possible values: 2, 3
	DomainSize float64 // side of the cubic domain

	// Initial velocity of each component is uniform in [VelocityMin, VelocityMax)
	VelocityMin float64
	VelocityMax float64

	// Interaction parameters
	Strategy         string  // possible values: radius, nearest, cone
	RepulsionRadius  float64 // unit: length
	AlignmentRadius  float64 // unit: length
	AttractionRadius float64 // unit: length
	RepulsionGain    float64 // unit: speed
	AlignmentGain    float64 // unit: 1
	AttractionGain   float64 // unit: speed
	MaxSpeed         float64 // unit: length/time
	Neighbors        int     // number of neighbors (nearest only)
	VisionAngle      float64 // full aperture of the visual cone, unit: degree (cone only)

	// Contagion parameters
	ContagionDistance float64 // unit: length
	ContagionPeriod   int     // unit: tick, 0 disables contagion
	ContagionScale    float64 // amplitude of the velocity perturbation
	Perturbation      string  // possible values: component, magnitude
	Leader            int     // index of the leader, -1 for a random one
}

// DefaultModel are the default model parameters.
var DefaultModel = Model{
	SchoolSize:        50,
	Dim:               2,
	DomainSize:        20,
	VelocityMin:       -1,
	VelocityMax:       1,
	Strategy:          "radius",
	RepulsionRadius:   1,
	AlignmentRadius:   2.5,
	AttractionRadius:  5,
	RepulsionGain:     0.05,
	AlignmentGain:     0.03,
	AttractionGain:    0.01,
	MaxSpeed:          1.5,
	Neighbors:         6,
	VisionAngle:       60,
	ContagionDistance: 1.5,
	ContagionPeriod:   5,
	ContagionScale:    0.5,
	Perturbation:      "component",
	Leader:            -1,
}

// Shoal returns the core configuration described by m.
// A zero seed is first replaced by one drawn from the clock so that
// m records the seed actually used.
func (m *Model) Shoal() (shoal.Config, error) {
	if m.Seed == 0 {
		m.Seed = time.Now().UnixNano()
	}
	return m.Config()
}

// Config returns the core configuration described by m, using m.Seed as is.
func (m *Model) Config() (shoal.Config, error) {
	strategy, serr := shoal.ParseStrategy(m.Strategy)
	mode, merr := shoal.ParsePerturbMode(m.Perturbation)
	if err := errors.Join(serr, merr); err != nil {
		return shoal.Config{}, err
	}

	top := r3.Vec{X: m.DomainSize, Y: m.DomainSize}
	if m.Dim == 3 {
		top.Z = m.DomainSize
	}
	c := shoal.Config{
		Size:     m.SchoolSize,
		Bounds:   shoal.Bounds{Dim: m.Dim, Max: top},
		Velocity: shoal.Range{Min: m.VelocityMin, Max: m.VelocityMax},
		Seed:     m.Seed,
		Interaction: shoal.Interaction{
			Strategy:    strategy,
			Repulsion:   m.RepulsionRadius,
			Alignment:   m.AlignmentRadius,
			Attraction:  m.AttractionRadius,
			KRepulsion:  m.RepulsionGain,
			KAlignment:  m.AlignmentGain,
			KAttraction: m.AttractionGain,
			Vmax:        m.MaxSpeed,
			K:           m.Neighbors,
			VisionAngle: m.VisionAngle * math.Pi / 180,
		},
		Contagion: shoal.Contagion{
			Distance: m.ContagionDistance,
			Period:   m.ContagionPeriod,
			Scale:    m.ContagionScale,
			Mode:     mode,
			Leader:   m.Leader,
		},
		Workers: m.Workers,
	}
	return c, c.Validate()
}

// Aperture returns the full aperture of the visual area of an agent in radians.
// Agents that are not restricted to a visual cone see all around them.
func (m *Model) Aperture() float64 {
	if m.Strategy == shoal.Cone.String() {
		return m.VisionAngle * math.Pi / 180
	}
	return 2 * math.Pi
}

// ParseConfig parses the TOML config file whose path is provided into conf,
// which must be a pointer to a struct already holding the default parameters.
// It returns the keys of the file that match no parameter.
func ParseConfig(path string, conf interface{}) (undecoded []string, err error) {
	md, err := toml.DecodeFile(path, conf)
	if err != nil {
		return nil, err
	}
	for _, k := range md.Undecoded() {
		undecoded = append(undecoded, k.String())
	}
	return undecoded, nil
}

// Args parses the command line of a command taking a single optional
// config file into conf. usage is shown when too many arguments are given.
func Args(args []string, usage string, conf interface{}) (undecoded []string, err error) {
	switch len(args) {
	case 1:
		return nil, nil
	case 2:
		return ParseConfig(args[1], conf)
	}
	return nil, fmt.Errorf("%d arguments provided (0 required, 1 optional)\n\n%s", len(args)-1, usage)
}

// NewLogger returns a logger writing to the standard error at the given level.
func NewLogger(level string) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level == "" {
		return log, nil
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)
	return log, nil
}

// Fatal prints an error on the standard error and exits with a non-zero status.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}
