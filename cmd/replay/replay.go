// Command replay plays back trajectories recorded by swarm in an OpenGL window.
//
// Usage
//
// The replay command takes one optional argument:
//
//	replay [config_file]
//
// It is the path to a TOML config file using the keys of Config.
// Once the last recorded step is shown, playback starts over.
package main

import (
	"math"
	"os"
	"runtime"

	"github.com/PrincetonUniversity/shoal"
	"github.com/PrincetonUniversity/shoal/hdf5"
	"github.com/PrincetonUniversity/shoal/internal/cli"
	"github.com/PrincetonUniversity/shoal/opengl"
	"github.com/sirupsen/logrus"
)

const usage = `Usage: replay [config_file]

The first argument is optional and is the path to a TOML config file.
If no config file is specified, shoal.h5 is replayed.
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

	p, err := newPlayer(conf.Input, conf.Dataset, log)
	if err != nil {
		cli.Fatal(err)
	}
	defer p.Close()
	log.WithFields(logrus.Fields{"input": conf.Input, "steps": p.Steps(), "agents": p.Size()}).Info("replaying")

	err = opengl.Run(p, &opengl.Config{
		Title:         "Shoal replay",
		MaxSchoolSize: p.Size(),
		Step:          p.Step,
		ForcePause:    conf.Pause,
		Size:          conf.AgentSize,
		Aperture:      conf.VisionAngle * math.Pi / 180,
		Reach:         conf.Reach,
		Xmin:          conf.Xmin,
		Ymin:          conf.Ymin,
		Xmax:          conf.Xmax,
		Ymax:          conf.Ymax,
		Log:           log,
	})
	if err != nil {
		p.Close()
		cli.Fatal(err)
	}
}

// A player serves recorded steps one after the other.
type player struct {
	*hdf5.Loader
	school []shoal.AgentState
	step   int // index of the step in school
	log    logrus.FieldLogger
}

// newPlayer opens the dataset and loads its first step.
func newPlayer(path, dataset string, log logrus.FieldLogger) (*player, error) {
	l, err := hdf5.NewLoader(path, dataset)
	if err != nil {
		return nil, err
	}
	p := &player{Loader: l, school: make([]shoal.AgentState, 0, l.Size()), step: -1, log: log}
	if err := p.Step(); err != nil {
		l.Close()
		return nil, err
	}
	return p, nil
}

// Step loads the next recorded step.
func (p *player) Step() error {
	if err := p.Load(&p.school); err != nil {
		return err
	}
	p.step = (p.step + 1) % p.Steps()
	if p.step == 0 {
		p.log.Debug("first step")
	}
	return nil
}

// Snapshot returns the agents of the current step.
func (p *player) Snapshot() []shoal.AgentState {
	return p.school
}
