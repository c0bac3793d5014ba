//go:build !nogl

// Package opengl displays shoal simulations in an interactive OpenGL window.
//
// Space pauses and resumes, right arrow performs a single step while paused,
// the mouse wheel zooms, R resets the viewport, Tab and shift Tab cycle
// through focal agents whose visual area is outlined. Esc quits.
package opengl

import (
	"embed"
	"fmt"
	"unsafe"

	"github.com/PrincetonUniversity/shoal"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"
)

//go:embed shaders
var shaderFS embed.FS

// A Source provides the agents to draw.
type Source interface {
	Snapshot() []shoal.AgentState
}

// Config holds the parameters of the OpenGL driver.
type Config struct {
	Title         string
	MaxSchoolSize int          // maximum school size
	Step          func() error // go to next step
	ForcePause    bool         // step manually only?

	Size     float64 // length of the agents on screen, in simulation units
	Aperture float64 // full aperture of the outlined visual cone, in radians
	Reach    float64 // radius of the outlined visual cone

	// bounds of default viewport
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64

	Log logrus.FieldLogger // may be nil
}

// Run runs an interactive simulation in an OpenGL window.
func Run(src Source, conf *Config) error {
	// init GLFW and OpenGL
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Samples, 4)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	// create OpenGL window
	const (
		width  = 800
		height = 800
	)
	title := conf.Title
	if title == "" {
		title = "Shoal"
	}
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return err
	}
	w.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return err
	}

	// set background color and enable alpha blending
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	w.SwapBuffers()

	// initialize OpenGL objects
	d, err := newDisplay(conf.MaxSchoolSize)
	if err != nil {
		return err
	}
	d.size = float32(conf.Size)

	home := viewport{{float32(conf.Xmin), float32(conf.Ymin)}, {float32(conf.Xmax), float32(conf.Ymax)}}
	vp := home
	focal := -1 // index of the agent whose visual area is displayed
	snap := src.Snapshot()
	redraw := func() {
		d.draw(snap, focal, vp, conf)
		w.SwapBuffers()
	}

	// handle scrolling zoom
	w.SetScrollCallback(func(w *glfw.Window, xo, yo float64) {
		xc, yc := w.GetCursorPos()
		xs, ys := w.GetSize()
		vp.zoom(float32(xc)/float32(xs), (float32(ys)-float32(yc))/float32(ys), 0.05*float32(yo))
		redraw()
	})

	var quit, step bool
	pause := conf.ForcePause
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, mod glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			quit = true
		}
		if key == glfw.KeySpace && action == glfw.Press && !conf.ForcePause {
			pause = !pause
		}
		if key == glfw.KeyRight && (action == glfw.Press || action == glfw.Repeat) {
			if pause {
				pause = false
				step = true
			}
		}
		if key == glfw.KeyTab && action == glfw.Press {
			focal = cycle(focal, len(snap), mod&glfw.ModShift != 0)
			if conf.Log != nil && focal >= 0 {
				conf.Log.WithField("agent", focal).Debug("focal agent")
			}
			redraw()
		}
		if key == glfw.KeyR && action == glfw.Press {
			vp = home
			redraw()
		}
	})

	for !(quit || w.ShouldClose()) {
		if step {
			pause = true
			step = false
			if err := conf.Step(); err != nil {
				return err
			}
			snap = src.Snapshot()
		}
		if !pause {
			if err := conf.Step(); err != nil {
				return err
			}
			snap = src.Snapshot()
		}
		redraw()
		glfw.PollEvents()
	}
	return nil
}

// display contains all the OpenGL objects required to display the simulation.
type display struct {
	prog struct {
		agent uint32
		line  uint32
	}
	vao struct {
		agent uint32
		line  uint32
	}
	buf struct {
		agent uint32
		line  uint32
	}
	uni struct {
		agentVP int32 // viewport
		size    int32 // agent length
		lineVP  int32 // viewport
	}
	max   int // capacity of the agent buffer
	size  float32
	verts []vertex
	lines []vertex
}

// draw updates the OpenGL buffers and draws the agents on screen.
func (d *display) draw(s []shoal.AgentState, focal int, vp viewport, conf *Config) {
	if len(s) > d.max {
		s = s[:d.max]
	}
	d.verts = agents(d.verts[:0], s)
	d.lines = focus(d.lines[:0], s, focal, conf.Aperture, conf.Reach)

	gl.UseProgram(d.prog.agent)
	gl.Uniform2fv(d.uni.agentVP, 2, &vp[0].X)
	gl.Uniform1f(d.uni.size, d.size)
	gl.UseProgram(d.prog.line)
	gl.Uniform2fv(d.uni.lineVP, 2, &vp[0].X)

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if len(d.lines) > 0 {
		gl.BindVertexArray(d.vao.line)
		gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.line)
		gl.BufferData(gl.ARRAY_BUFFER, len(d.lines)*int(unsafe.Sizeof(vertex{})), gl.Ptr(d.lines), gl.STREAM_DRAW)
		gl.UseProgram(d.prog.line)
		gl.DrawArrays(gl.LINES, 0, int32(len(d.lines)))
	}

	if len(d.verts) > 0 {
		gl.BindVertexArray(d.vao.agent)
		gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.agent)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(d.verts)*int(unsafe.Sizeof(vertex{})), gl.Ptr(d.verts))
		gl.UseProgram(d.prog.agent)
		gl.DrawArrays(gl.POINTS, 0, int32(len(d.verts)))
	}
}

// newDisplay compiles shaders and initializes a display.
func newDisplay(maxSchoolSize int) (*display, error) {
	d := &display{max: maxSchoolSize}

	// compile and link shaders
	var err error
	d.prog.agent, err = makeProg([]shader{
		{"Vertex", "agent.vert", gl.CreateShader(gl.VERTEX_SHADER)},
		{"Geometry", "agent.geom", gl.CreateShader(gl.GEOMETRY_SHADER)},
		{"Fragment", "color.frag", gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}
	d.prog.line, err = makeProg([]shader{
		{"Vertex", "line.vert", gl.CreateShader(gl.VERTEX_SHADER)},
		{"Fragment", "color.frag", gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}

	// uniform location cannot be specified in the shaders in OpenGL 3.3 core
	d.uni.agentVP = gl.GetUniformLocation(d.prog.agent, gl.Str("vp\x00"))
	d.uni.size = gl.GetUniformLocation(d.prog.agent, gl.Str("size\x00"))
	d.uni.lineVP = gl.GetUniformLocation(d.prog.line, gl.Str("vp\x00"))

	// attribute locations are specified in the shaders with layout(location=n)
	const (
		pos   = 0
		vel   = 1
		color = 2
	)
	const n = int32(unsafe.Sizeof(vertex{}))

	gl.GenVertexArrays(1, &d.vao.agent)
	gl.BindVertexArray(d.vao.agent)
	gl.GenBuffers(1, &d.buf.agent)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.agent)
	gl.BufferData(gl.ARRAY_BUFFER, maxSchoolSize*int(n), nil, gl.STREAM_DRAW)

	gl.EnableVertexAttribArray(pos)
	gl.VertexAttribPointer(pos, 2, gl.FLOAT, false, n, gl.PtrOffset(int(unsafe.Offsetof(vertex{}.Pos))))
	gl.EnableVertexAttribArray(vel)
	gl.VertexAttribPointer(vel, 2, gl.FLOAT, false, n, gl.PtrOffset(int(unsafe.Offsetof(vertex{}.Vel))))
	gl.EnableVertexAttribArray(color)
	gl.VertexAttribPointer(color, 4, gl.FLOAT, false, n, gl.PtrOffset(int(unsafe.Offsetof(vertex{}.Color))))

	gl.GenVertexArrays(1, &d.vao.line)
	gl.BindVertexArray(d.vao.line)
	gl.GenBuffers(1, &d.buf.line)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.line)

	gl.EnableVertexAttribArray(pos)
	gl.VertexAttribPointer(pos, 2, gl.FLOAT, false, n, gl.PtrOffset(int(unsafe.Offsetof(vertex{}.Pos))))
	gl.EnableVertexAttribArray(color)
	gl.VertexAttribPointer(color, 4, gl.FLOAT, false, n, gl.PtrOffset(int(unsafe.Offsetof(vertex{}.Color))))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	d.verts = make([]vertex, 0, maxSchoolSize)
	d.lines = make([]vertex, 0, 2*(maxSchoolSize+arcSegments+2))
	return d, nil
}

// A shader wraps an OpenGL shader.
type shader struct {
	name   string
	path   string
	shader uint32
}

// makeProg builds OpenGL programs.
func makeProg(list []shader) (uint32, error) {
	var fail bool
	for _, s := range list {
		src, err := readShader(s.path)
		if err != nil {
			return 0, err
		}
		str, free := gl.Strs(src + "\x00")
		gl.ShaderSource(s.shader, 1, str, nil)
		free()
		gl.CompileShader(s.shader)
		var status int32
		gl.GetShaderiv(s.shader, gl.COMPILE_STATUS, &status)
		if status != gl.TRUE {
			var n int32
			gl.GetShaderiv(s.shader, gl.INFO_LOG_LENGTH, &n)
			log := make([]uint8, n+1)
			gl.GetShaderInfoLog(s.shader, n, &n, &log[0])
			logrus.WithField("shader", s.path).Errorf("%s shader compilation error:\n%s", s.name, gl.GoStr(&log[0]))
			fail = true
			gl.DeleteShader(s.shader)
		}
	}
	if fail {
		return 0, fmt.Errorf("opengl: GLSL errors")
	}
	prog := gl.CreateProgram()
	for _, s := range list {
		gl.AttachShader(prog, s.shader)
	}
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status != gl.TRUE {
		return 0, fmt.Errorf("opengl: cannot link %s", list[0].path)
	}
	return prog, nil
}

func readShader(path string) (string, error) {
	b, err := shaderFS.ReadFile("shaders/" + path)
	return string(b), err
}
