package shoal

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Bands partitions the neighbors of a focal agent into the three zones
// of the behavioral model. Entries are indices into the school.
type Bands struct {
	Repulsion  []int
	Alignment  []int
	Attraction []int
}

// Len returns the total number of neighbors in all bands.
func (b Bands) Len() int {
	return len(b.Repulsion) + len(b.Alignment) + len(b.Attraction)
}

// A Classifier finds the neighbors of the agent at index focal in school
// and sorts them into bands. idx must index the positions of school.
// Implementations only read school.
type Classifier interface {
	Classify(focal int, school []Agent, idx *Index) Bands
}

// NewClassifier returns the classifier selected by in.Strategy.
func NewClassifier(in Interaction) Classifier {
	z := zones{in.Repulsion, in.Alignment, in.Attraction}
	switch in.Strategy {
	case Nearest:
		return NearestBands{zones: z, K: in.K}
	case Cone:
		return ConeBands{zones: z, Angle: in.VisionAngle}
	default:
		return RadiusBands{zones: z}
	}
}

// zones holds the outer radii of the three bands.
type zones struct {
	rep, align, attract float64
}

// add puts neighbor j at distance d into the band it belongs to, if any.
func (z zones) add(b *Bands, j int, d float64) {
	switch {
	case d < z.rep:
		b.Repulsion = append(b.Repulsion, j)
	case d < z.align:
		b.Alignment = append(b.Alignment, j)
	case d < z.attract:
		b.Attraction = append(b.Attraction, j)
	}
}

// RadiusBands considers every agent closer than the attraction radius.
type RadiusBands struct {
	zones
}

// Classify implements Classifier.
func (c RadiusBands) Classify(focal int, school []Agent, idx *Index) Bands {
	var b Bands
	for _, n := range idx.Radius(school[focal].Pos, c.attract) {
		if n.Index == focal {
			continue
		}
		c.add(&b, n.Index, n.Dist)
	}
	return b
}

// NearestBands considers only the K agents nearest to the focal agent,
// which makes the number of interactions independent of density.
// Candidates beyond the attraction radius fall in no band.
type NearestBands struct {
	zones
	K int
}

// Classify implements Classifier.
func (c NearestBands) Classify(focal int, school []Agent, idx *Index) Bands {
	var b Bands
	n := 0
	for _, m := range idx.Nearest(school[focal].Pos, c.K+1) {
		if m.Index == focal || n == c.K {
			continue
		}
		n++
		c.add(&b, m.Index, m.Dist)
	}
	return b
}

// ConeBands considers agents within the attraction radius that lie inside
// a cone of full aperture Angle centered on the velocity of the focal agent.
// An agent at rest has no heading and sees nothing.
type ConeBands struct {
	zones
	Angle float64
}

// Classify implements Classifier.
func (c ConeBands) Classify(focal int, school []Agent, idx *Index) Bands {
	var b Bands
	p := school[focal]
	heading := Unit(p.Vel)
	if heading == (r3.Vec{}) {
		return b
	}
	for _, n := range idx.Radius(p.Pos, c.attract) {
		if n.Index == focal || !c.sees(heading, p.Pos, school[n.Index].Pos) {
			continue
		}
		c.add(&b, n.Index, n.Dist)
	}
	return b
}

// sees reports whether q lies in the cone of an observer at p
// looking along the unit vector heading.
func (c ConeBands) sees(heading, p, q r3.Vec) bool {
	dir := Unit(r3.Sub(q, p))
	if dir == (r3.Vec{}) {
		return false
	}
	return angle(heading, dir) <= c.Angle/2
}

// Visible returns the indices of the agents that the agent at index focal
// can see with the given cone aperture and range, in increasing distance.
func Visible(focal int, school []Agent, idx *Index, aperture, reach float64) []int {
	c := ConeBands{Angle: aperture}
	p := school[focal]
	heading := Unit(p.Vel)
	if heading == (r3.Vec{}) {
		return nil
	}
	var v []int
	for _, n := range idx.Radius(p.Pos, reach) {
		if n.Index != focal && c.sees(heading, p.Pos, school[n.Index].Pos) {
			v = append(v, n.Index)
		}
	}
	return v
}
