// Package video exports shoal simulations as MJPEG AVI animations.
package video

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"github.com/PrincetonUniversity/shoal"
	"github.com/icza/mjpeg"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Config holds the parameters of the video driver.
type Config struct {
	Output string       // path of output file
	Steps  int          // total number of frames
	Step   func() error // go to next step

	Width   int // frame width in pixels
	Height  int // frame height in pixels
	FPS     int // frames per second
	Quality int // JPEG quality, 1 to 100
	Radius  int // radius of agents in pixels

	View shoal.Bounds // area of simulation space shown, only X and Y are used
	Dt   float64      // duration of a step, for the frame label

	Log logrus.FieldLogger // progress, may be nil
}

var (
	background = color.RGBA{0, 0, 0, 255}
	foreground = color.RGBA{255, 255, 255, 255}
	palette    = map[shoal.Tag]color.RGBA{
		shoal.Normal:       {51, 102, 255, 255},
		shoal.Leader:       {255, 0, 0, 255},
		shoal.Contaminated: {0, 255, 0, 255},
	}
)

// A Writer rasterizes snapshots of a school into the frames of an AVI file.
type Writer struct {
	conf *Config
	avi  mjpeg.AviWriter
	img  *image.RGBA
	buf  bytes.Buffer
}

// NewWriter creates the output file of conf.
func NewWriter(conf *Config) (*Writer, error) {
	if conf.Width <= 0 || conf.Height <= 0 || conf.FPS <= 0 {
		return nil, fmt.Errorf("video: bad frame geometry %dx%d at %d fps", conf.Width, conf.Height, conf.FPS)
	}
	if v := conf.View; !(v.Max.X > v.Min.X) || !(v.Max.Y > v.Min.Y) {
		return nil, fmt.Errorf("video: empty view [%g, %g]x[%g, %g]", v.Min.X, v.Max.X, v.Min.Y, v.Max.Y)
	}
	if err := os.MkdirAll(filepath.Dir(conf.Output), 0755); err != nil {
		return nil, err
	}
	avi, err := mjpeg.New(conf.Output, int32(conf.Width), int32(conf.Height), int32(conf.FPS))
	if err != nil {
		return nil, err
	}
	return &Writer{
		conf: conf,
		avi:  avi,
		img:  image.NewRGBA(image.Rect(0, 0, conf.Width, conf.Height)),
	}, nil
}

// Frame adds a frame showing s with label written in the top left corner.
func (w *Writer) Frame(s []shoal.AgentState, label string) error {
	w.render(s, label)
	w.buf.Reset()
	q := w.conf.Quality
	if q <= 0 {
		q = jpeg.DefaultQuality
	}
	if err := jpeg.Encode(&w.buf, w.img, &jpeg.Options{Quality: q}); err != nil {
		return err
	}
	return w.avi.AddFrame(w.buf.Bytes())
}

// Close finalizes the AVI file.
func (w *Writer) Close() error {
	return w.avi.Close()
}

// render draws s into w.img.
func (w *Writer) render(s []shoal.AgentState, label string) {
	draw.Draw(w.img, w.img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)
	for _, a := range s {
		x, y := w.pixel(a.Pos.X, a.Pos.Y)
		c := palette[a.Tag]
		disk(w.img, x, y, w.conf.Radius, c)

		// heading
		if n := math.Hypot(a.Vel.X, a.Vel.Y); n > 0 {
			r := float64(2*w.conf.Radius + 2)
			segment(w.img, x, y, x+int(math.Round(r*a.Vel.X/n)), y-int(math.Round(r*a.Vel.Y/n)), c)
		}
	}
	if label != "" {
		d := &font.Drawer{
			Dst:  w.img,
			Src:  image.NewUniform(foreground),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.I(6), Y: fixed.I(16)},
		}
		d.DrawString(label)
	}
}

// pixel returns the pixel coordinates of a point of simulation space.
func (w *Writer) pixel(px, py float64) (x, y int) {
	v := w.conf.View
	u := (px - v.Min.X) / (v.Max.X - v.Min.X)
	t := (py - v.Min.Y) / (v.Max.Y - v.Min.Y)
	x = int(math.Round(u * float64(w.conf.Width-1)))
	y = int(math.Round((1 - t) * float64(w.conf.Height-1)))
	return x, y
}

// disk fills a disk of radius r centered on (cx, cy).
func disk(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r && image.Pt(x, y).In(img.Rect) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// segment draws a line from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func segment(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Rect) {
			img.SetRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Run runs a simulation and saves one frame per step to an AVI file.
// The first frame is the initial state.
func Run(s *shoal.Simulation, conf *Config) (err error) {
	w, err := NewWriter(conf)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	last := -1
	for k := 0; k < conf.Steps; k++ {
		if p := 100 * k / conf.Steps; conf.Log != nil && p/10 != last {
			last = p / 10
			conf.Log.WithFields(logrus.Fields{"step": k, "progress": p}).Info("encoding")
		}
		label := fmt.Sprintf("t=%.1f  contaminated %d/%d", float64(s.Ticks())*conf.Dt, s.Infected(), len(s.School))
		if err := w.Frame(s.Snapshot(), label); err != nil {
			return fmt.Errorf("video: frame %d: %w", k, err)
		}
		if err := conf.Step(); err != nil {
			return err
		}
	}
	return nil
}
