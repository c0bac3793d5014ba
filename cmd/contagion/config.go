package main

import (
	"github.com/PrincetonUniversity/shoal/internal/cli"
)

// Config holds the parameters of a batch of replicates.
type Config struct {
	// Output is the path of the HDF5 file receiving the contamination counts.
	// Empty for none.
	Output string

	// Chart is the path of a PNG chart of the mean contamination curve. Empty for none.
	Chart string

	LogLevel string // possible values: panic, fatal, error, warn, info, debug, trace

	Replicates int     // number of independent runs
	Parallel   int     // maximum number of concurrent runs, 0 for one per CPU
	Steps      int     // number of ticks per run
	Dt         float64 // duration of time steps
	Shown      int     // number of individual runs drawn next to the mean

	cli.Model
}

// DefaultConf are the default parameters.
var DefaultConf = Config{
	Output:     "",
	Chart:      "contagion.png",
	LogLevel:   "info",
	Replicates: 20,
	Steps:      1000,
	Dt:         0.05,
	Shown:      3,
	Model:      cli.DefaultModel,
}
