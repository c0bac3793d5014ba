// Command swarm runs shoal simulations: fish schools following the rules
// of Aoki while a behavior spreads from a leader.
//
// Usage
//
// The swarm command takes one optional argument:
//
//	swarm [config_file]
//
// It is the path to a TOML config file.
// If no config file is specified, an interactive simulation
// with default parameters will run in an OpenGL window.
//
// Config file
//
// The config file is written in TOML. See https://toml.io for the language.
// Keys are the names of the fields of Config, for instance:
//
//	Output = "runs/cone.h5"
//	Strategy = "cone"
//	VisionAngle = 60
//
// The Output extension selects the driver: .h5 records trajectories
// in an HDF5 file, .avi encodes an MJPEG video. Without Output, the
// simulation runs interactively.
//
// Interactive mode
//
// In interactive mode, the simulation can be paused/resumed with space.
// While in pause, pressing right arrow will perform a single step.
// Tab and shift tab allow to cycle through focal individuals
// whose visual area is outlined.
// Pressing Esc or closing the window will quit.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/PrincetonUniversity/shoal"
	"github.com/PrincetonUniversity/shoal/hdf5"
	"github.com/PrincetonUniversity/shoal/internal/cli"
	"github.com/PrincetonUniversity/shoal/opengl"
	"github.com/PrincetonUniversity/shoal/plot"
	"github.com/PrincetonUniversity/shoal/video"
	"github.com/sirupsen/logrus"
)

const usage = `Usage: swarm [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, an interactive simulation
with default parameters will run in an OpenGL window.
`

func init() {
	// Most OpenGL functions have to run from the main thread.
	// This is needed to arrange that main() runs on main thread.
	// See https://github.com/golang/go/wiki/LockOSThread for more info.
	runtime.LockOSThread()
}

func main() {
	conf := DefaultConf
	undecoded, err := cli.Args(os.Args, usage, &conf)
	if err != nil {
		cli.Fatal(err)
	}
	log, err := cli.NewLogger(conf.LogLevel)
	if err != nil {
		cli.Fatal(err)
	}
	for _, k := range undecoded {
		log.WithField("key", k).Warn("unknown config key")
	}

	r, err := setup(&conf, log)
	if err != nil {
		cli.Fatal(err)
	}
	if err := r.run(); err != nil {
		cli.Fatal(err)
	}
	if err := r.chart(); err != nil {
		cli.Fatal(err)
	}
}

// A runner drives a simulation and keeps track of contamination.
type runner struct {
	conf   *Config
	sim    *shoal.Simulation
	log    logrus.FieldLogger
	counts []int // contaminated agents after each tick, starting with the initial state
	full   bool  // whole school contaminated
}

// setup initializes the simulation described by conf.
func setup(conf *Config, log *logrus.Logger) (*runner, error) {
	c, err := conf.Shoal()
	if err != nil {
		return nil, err
	}
	sim, err := shoal.New(c)
	if err != nil {
		return nil, err
	}
	sim.Log = log
	log.WithFields(logrus.Fields{
		"agents":   c.Size,
		"dim":      c.Bounds.Dim,
		"strategy": c.Interaction.Strategy,
		"seed":     c.Seed,
	}).Info("simulation ready")
	return &runner{conf: conf, sim: sim, log: log, counts: []int{sim.Infected()}}, nil
}

// step runs a single tick.
func (r *runner) step() error {
	if err := r.sim.Tick(r.conf.Dt); err != nil {
		return err
	}
	n := r.sim.Infected()
	r.counts = append(r.counts, n)
	if !r.full && r.conf.ContagionPeriod > 0 && n == len(r.sim.School) {
		r.full = true
		r.log.WithFields(logrus.Fields{"tick": r.sim.Ticks(), "time": float64(r.sim.Ticks()) * r.conf.Dt}).Info("school fully contaminated")
	}
	return nil
}

// run runs the simulation with the driver selected by the output extension.
func (r *runner) run() error {
	conf := r.conf
	switch ext := strings.ToLower(filepath.Ext(conf.Output)); {
	case conf.Output == "":
		m := conf.DomainSize
		return opengl.Run(r.sim, &opengl.Config{
			Title:         "Shoal",
			MaxSchoolSize: conf.SchoolSize,
			Step:          r.step,
			Size:          conf.AgentSize,
			Aperture:      conf.Aperture(),
			Reach:         conf.AttractionRadius,
			Xmin:          -0.05 * m,
			Ymin:          -0.05 * m,
			Xmax:          1.05 * m,
			Ymax:          1.05 * m,
			Log:           r.log,
		})
	case ext == ".h5" || ext == ".hdf5":
		return hdf5.Run(r.sim, &hdf5.Config{
			Output:   conf.Output,
			Steps:    conf.Steps,
			Step:     r.step,
			Datasets: []*hdf5.Dataset{hdf5.Agents(conf.SchoolSize), hdf5.Infected()},
			Attrs:    conf,
			Log:      r.log,
		})
	case ext == ".avi":
		return video.Run(r.sim, &video.Config{
			Output: conf.Output,
			Steps:  conf.Steps,
			Step:   r.step,
			Width:  conf.FrameSize,
			Height: conf.FrameSize,
			FPS:    conf.FPS,
			Radius: conf.AgentPixel,
			View:   r.sim.Conf.Bounds,
			Dt:     conf.Dt,
			Log:    r.log,
		})
	default:
		return fmt.Errorf("unknown output format %q (use .h5, .avi or nothing)", ext)
	}
}

// chart writes the contamination curve if requested.
func (r *runner) chart() (err error) {
	if r.conf.Chart == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.conf.Chart), 0755); err != nil {
		return err
	}
	f, err := os.Create(r.conf.Chart)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return plot.Infections(f, plot.Options{
		Title: fmt.Sprintf("%d agents, %s strategy", r.conf.SchoolSize, r.conf.Strategy),
		Total: r.conf.SchoolSize,
		Dt:    r.conf.Dt,
	}, plot.Counts("contaminated", r.counts))
}
