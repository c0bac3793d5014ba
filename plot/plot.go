// Package plot draws contamination curves.
package plot

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// A Series is a contamination curve: the number of contaminated agents
// at each recorded tick.
type Series struct {
	Name   string
	Counts []float64
}

// Counts returns a series from integer counts.
func Counts(name string, counts []int) Series {
	s := Series{Name: name, Counts: make([]float64, len(counts))}
	for i, n := range counts {
		s.Counts[i] = float64(n)
	}
	return s
}

// Mean returns the tick by tick mean of several runs.
// Runs shorter than the longest one are considered to keep their last value.
func Mean(name string, runs [][]int) Series {
	var n int
	for _, r := range runs {
		n = max(n, len(r))
	}
	s := Series{Name: name, Counts: make([]float64, n)}
	if len(runs) == 0 {
		return s
	}
	for _, r := range runs {
		for i := range s.Counts {
			switch {
			case i < len(r):
				s.Counts[i] += float64(r[i])
			case len(r) > 0:
				s.Counts[i] += float64(r[len(r)-1])
			}
		}
	}
	for i := range s.Counts {
		s.Counts[i] /= float64(len(runs))
	}
	return s
}

// Options control the look of a chart.
type Options struct {
	Title  string
	Width  int
	Height int
	Total  int     // population size, top of the vertical axis
	Dt     float64 // time between two recorded counts, 0 labels ticks instead of time
}

// palette colors series in order, starting with the color of contaminated agents.
var palette = []drawing.Color{
	{R: 0, G: 170, B: 0, A: 255},
	chart.ColorBlue,
	chart.ColorRed,
	chart.ColorOrange,
	chart.ColorBlack,
}

// Infections renders series as a PNG image to w.
func Infections(w io.Writer, opt Options, series ...Series) error {
	if len(series) == 0 {
		return errors.New("plot: no series")
	}
	xname := "tick"
	dt := opt.Dt
	if dt == 0 {
		dt = 1
	} else {
		xname = "time"
	}

	var cs []chart.Series
	for i, s := range series {
		if len(s.Counts) < 2 {
			return fmt.Errorf("plot: series %q needs at least 2 points, got %d", s.Name, len(s.Counts))
		}
		x := make([]float64, len(s.Counts))
		for k := range x {
			x[k] = float64(k) * dt
		}
		cs = append(cs, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: x,
			YValues: s.Counts,
			Style:   chart.Style{StrokeColor: palette[i%len(palette)], StrokeWidth: 2},
		})
	}

	graph := chart.Chart{
		Title:  opt.Title,
		Width:  opt.Width,
		Height: opt.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  xname,
			Style: chart.Style{FontSize: 10},
		},
		YAxis: chart.YAxis{
			Name:  "contaminated",
			Style: chart.Style{FontSize: 10},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		Series: cs,
	}
	if opt.Total > 0 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: 0, Max: float64(opt.Total)}
	}
	if len(cs) > 1 {
		graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	}
	return graph.Render(chart.PNG, w)
}
