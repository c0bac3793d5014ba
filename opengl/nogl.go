//go:build nogl

// Package opengl displays shoal simulations in an interactive OpenGL window.
// This build has no OpenGL support.
package opengl

import (
	"fmt"
	"os"

	"github.com/PrincetonUniversity/shoal"
	"github.com/sirupsen/logrus"
)

// A Source provides the agents to draw.
type Source interface {
	Snapshot() []shoal.AgentState
}

// Config holds the parameters of the OpenGL driver.
type Config struct {
	Title         string
	MaxSchoolSize int
	Step          func() error
	ForcePause    bool

	Size     float64
	Aperture float64
	Reach    float64

	// Bounds of default viewport.
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64

	Log logrus.FieldLogger
}

// Run returns an error explaining that OpenGL support is disabled.
func Run(src Source, conf *Config) error {
	return fmt.Errorf("%s was built without OpenGL support", os.Args[0])
}
