package main

import (
	"github.com/PrincetonUniversity/shoal/internal/cli"
)

// Config holds the various parameters required for running a simulation.
type Config struct {
	// Output is either a filename (path) for the HDF5 (.h5) or video (.avi)
	// output file, or the empty string for an interactive OpenGL simulation.
	Output string

	// Chart is the path of a PNG chart of the number of contaminated agents
	// over time, written when the simulation ends. Empty for none.
	Chart string

	LogLevel string // possible values: panic, fatal, error, warn, info, debug, trace

	Steps int     // number of time steps (hdf5 and video only)
	Dt    float64 // duration of time steps

	cli.Model

	// Display parameters
	AgentSize  float64 // unit: length
	FrameSize  int     // unit: pixel (video only)
	FPS        int     // unit: frame/s (video only)
	AgentPixel int     // radius of agents, unit: pixel (video only)
}

// DefaultConf are the default parameters.
var DefaultConf = Config{
	Output:     "",
	Chart:      "",
	LogLevel:   "info",
	Steps:      2000,
	Dt:         0.05,
	Model:      cli.DefaultModel,
	AgentSize:  0.4,
	FrameSize:  720,
	FPS:        25,
	AgentPixel: 3,
}
