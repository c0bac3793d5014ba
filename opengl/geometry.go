package opengl

import (
	"math"

	"github.com/PrincetonUniversity/shoal"
	"gonum.org/v1/gonum/spatial/r3"
)

// A vertex is what is sent to OpenGL for each agent or line end.
// Only the XY projection of 3D schools is displayed.
type vertex struct {
	Pos   [2]float32
	Vel   [2]float32
	Color [4]float32
}

// arcSegments is the number of segments approximating the arc of the focal cone.
const arcSegments = 32

// Color returns the display color of an agent with tag t.
func Color(t shoal.Tag) [4]float32 {
	switch t {
	case shoal.Leader:
		return [4]float32{1, 0, 0, 1}
	case shoal.Contaminated:
		return [4]float32{0, 1, 0, 1}
	}
	return [4]float32{0.2, 0.4, 1, 1}
}

var (
	coneColor = [4]float32{1, 1, 1, 0.5}
	linkColor = [4]float32{1, 1, 0, 0.6}
)

// agents appends one vertex per agent to dst.
func agents(dst []vertex, s []shoal.AgentState) []vertex {
	for _, a := range s {
		dst = append(dst, vertex{
			Pos:   [2]float32{float32(a.Pos.X), float32(a.Pos.Y)},
			Vel:   [2]float32{float32(a.Vel.X), float32(a.Vel.Y)},
			Color: Color(a.Tag),
		})
	}
	return dst
}

// focus appends to dst the line segments outlining the area seen by the agent
// at index focal, followed by one segment to each agent it sees.
// Nothing is appended for an agent at rest since it sees nothing.
func focus(dst []vertex, s []shoal.AgentState, focal int, aperture, reach float64) []vertex {
	if focal < 0 || focal >= len(s) {
		return dst
	}
	f := s[focal]
	if r3.Norm(f.Vel) == 0 {
		return dst
	}
	θ := math.Atan2(f.Vel.Y, f.Vel.X)

	line := func(a, b r3.Vec, c [4]float32) {
		dst = append(dst,
			vertex{Pos: [2]float32{float32(a.X), float32(a.Y)}, Color: c},
			vertex{Pos: [2]float32{float32(b.X), float32(b.Y)}, Color: c},
		)
	}
	at := func(φ float64) r3.Vec {
		sin, cos := math.Sincos(φ)
		return r3.Vec{X: f.Pos.X + reach*cos, Y: f.Pos.Y + reach*sin}
	}

	half := math.Min(aperture, 2*math.Pi) / 2
	if half < math.Pi {
		line(f.Pos, at(θ-half), coneColor)
		line(f.Pos, at(θ+half), coneColor)
	}
	for k := 0; k < arcSegments; k++ {
		φ0 := θ - half + 2*half*float64(k)/arcSegments
		φ1 := θ - half + 2*half*float64(k+1)/arcSegments
		line(at(φ0), at(φ1), coneColor)
	}

	school := make([]shoal.Agent, len(s))
	pos := make([]r3.Vec, len(s))
	for i, a := range s {
		school[i] = shoal.Agent{Pos: a.Pos, Vel: a.Vel, Contaminated: a.Contaminated, Tag: a.Tag}
		pos[i] = a.Pos
	}
	for _, j := range shoal.Visible(focal, school, shoal.NewIndex(pos, 3), aperture, reach) {
		line(f.Pos, s[j].Pos, linkColor)
	}
	return dst
}

// A viewport is a rectangle delimiting the area of simulation space shown on screen.
// The first point is the bottom left corner, the second point is the top right corner.
type viewport [2]struct{ X, Y float32 }

// zoom zooms vp by a factor proportional to z around the point at
// relative coordinates (x, y) in [0, 1]².
func (vp *viewport) zoom(x, y, z float32) {
	dx, dy := vp[1].X-vp[0].X, vp[1].Y-vp[0].Y
	vp[0].X += z * -(x * dx)
	vp[0].Y += z * -(y * dy)
	vp[1].X += z * (1 - x) * dx
	vp[1].Y += z * (1 - y) * dy
}

// cycle returns the next focal index in -1, 0, ..., n-1, -1, ...
// or the previous one if back is true. -1 means no focal agent.
func cycle(focal, n int, back bool) int {
	if back {
		focal--
	} else {
		focal++
	}
	return (n+focal+2)%(n+1) - 1
}
