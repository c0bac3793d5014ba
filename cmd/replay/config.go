package main

// Config holds the parameters of a replay.
type Config struct {
	Input    string // HDF5 file written by swarm
	Dataset  string // name of the agents dataset
	LogLevel string // possible values: panic, fatal, error, warn, info, debug, trace
	Pause    bool   // start paused and step manually only

	// Display parameters
	AgentSize   float64 // unit: length
	VisionAngle float64 // full aperture of the outlined visual cone, unit: degree
	Reach       float64 // radius of the outlined visual cone, unit: length

	// bounds of default viewport
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// DefaultConf are the default parameters.
var DefaultConf = Config{
	Input:       "shoal.h5",
	Dataset:     "agents",
	LogLevel:    "info",
	AgentSize:   0.4,
	VisionAngle: 360,
	Reach:       5,
	Xmin:        -1,
	Ymin:        -1,
	Xmax:        21,
	Ymax:        21,
}
