package glrender

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"runtime"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/matjam/glance/internal/render"
	"github.com/matjam/glance/internal/types"
)

var ErrTextureTooLarge = errors.New("texture exceeds GL_MAX_TEXTURE_SIZE")

type Options struct {
	Title      string
	Width      int // 0 uses the desktop width
	Height     int // 0 uses the desktop height
	Fullscreen bool
}

// NewDisplay opens a window with an OpenGL 2.1 context. The calling
// goroutine is locked to its OS thread and must make every later call.
func NewDisplay(opts Options) (render.Display, error) {
	return newGLFWRenderer(opts)
}

type texture struct {
	id   uint32
	w, h int
}

func (t *texture) Size() (int, int) { return t.w, t.h }

type glfwRenderer struct {
	win        *glfw.Window
	maxTexSize int32
	fullscreen bool

	// windowed geometry restored when leaving fullscreen
	winX, winY, winW, winH int

	pending []render.Event
}

func newGLFWRenderer(opts Options) (*glfwRenderer, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("glfw init failed: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.TransparentFramebuffer, glfw.True)

	vidMode := glfw.GetPrimaryMonitor().GetVideoMode()
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = vidMode.Width
	}
	if h <= 0 {
		h = vidMode.Height
	}
	win, err := glfw.CreateWindow(w, h, opts.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window failed: %w", err)
	}

	win.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("gl init failed: %w", err)
	}
	glfw.SwapInterval(1)
	gl.ClearColor(0.0, 0.0, 0.0, 1.0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	// Keep destination alpha in step with the colour so the compositor sees
	// the backing and shadow as drawn.
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.BLEND)

	r := &glfwRenderer{win: win, winW: w, winH: h}
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &r.maxTexSize)
	r.installCallbacks()
	r.setupProjection()

	win.Show()
	if opts.Fullscreen {
		r.SetFullscreen(true)
	}
	return r, nil
}

func (r *glfwRenderer) setupProjection() {
	fw, fh := r.win.GetFramebufferSize()
	w, h := r.win.GetSize()
	gl.Viewport(0, 0, int32(fw), int32(fh))
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	// Window coordinates: origin top left, y down, in screen units.
	gl.Ortho(0, float64(w), float64(h), 0, -1, 1)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()
}

func (r *glfwRenderer) installCallbacks() {
	r.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if a, ok := keyActions[key]; ok {
			r.push(render.Event{Kind: render.EventAction, Action: a})
		}
	})
	r.win.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		b, ok := mouseButtons[button]
		if !ok {
			return
		}
		x, y := w.GetCursorPos()
		kind := render.EventPress
		if action == glfw.Release {
			kind = render.EventRelease
		}
		r.push(render.Event{Kind: kind, Button: b, X: x, Y: y})
	})
	r.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		r.push(render.Event{Kind: render.EventMotion, X: x, Y: y})
	})
	r.win.SetScrollCallback(func(w *glfw.Window, _, yoff float64) {
		x, y := w.GetCursorPos()
		r.push(render.Event{Kind: render.EventScroll, X: x, Y: y, Delta: yoff})
	})
	r.win.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		r.setupProjection()
		r.push(render.Event{Kind: render.EventResize, X: float64(width), Y: float64(height)})
	})
	r.win.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		r.setupProjection()
	})
	r.win.SetCloseCallback(func(_ *glfw.Window) {
		r.push(render.Event{Kind: render.EventClose})
	})
}

func (r *glfwRenderer) push(ev render.Event) {
	r.pending = append(r.pending, ev)
}

var keyActions = map[glfw.Key]types.Action{
	glfw.KeyF:          types.ActionToggleFullscreen,
	glfw.KeyF11:        types.ActionToggleFullscreen,
	glfw.KeyR:          types.ActionRotateCW,
	glfw.KeyL:          types.ActionRotateCCW,
	glfw.KeyM:          types.ActionToggleMirror,
	glfw.KeyHome:       types.ActionResetView,
	glfw.Key0:          types.ActionZoomNative,
	glfw.KeyKP0:        types.ActionZoomNative,
	glfw.KeyEqual:      types.ActionZoomIn,
	glfw.KeyKPAdd:      types.ActionZoomIn,
	glfw.KeyMinus:      types.ActionZoomOut,
	glfw.KeyKPSubtract: types.ActionZoomOut,
	glfw.KeyPageUp:     types.ActionPrev,
	glfw.KeyKP9:        types.ActionPrev,
	glfw.KeyPageDown:   types.ActionNext,
	glfw.KeyKP3:        types.ActionNext,
	glfw.KeyLeft:       types.ActionPanLeft,
	glfw.KeyKP4:        types.ActionPanLeft,
	glfw.KeyRight:      types.ActionPanRight,
	glfw.KeyKP6:        types.ActionPanRight,
	glfw.KeyUp:         types.ActionPanUp,
	glfw.KeyKP8:        types.ActionPanUp,
	glfw.KeyDown:       types.ActionPanDown,
	glfw.KeyKP2:        types.ActionPanDown,
	glfw.KeySpace:      types.ActionTogglePause,
	glfw.KeyQ:          types.ActionQuit,
	glfw.KeyEscape:     types.ActionQuit,
	glfw.KeyEnter:      types.ActionQuit,
	glfw.KeyKPEnter:    types.ActionQuit,
}

var mouseButtons = map[glfw.MouseButton]render.Button{
	glfw.MouseButtonLeft:   render.ButtonLeft,
	glfw.MouseButtonMiddle: render.ButtonMiddle,
	glfw.MouseButtonRight:  render.ButtonRight,
}

func (r *glfwRenderer) Wait(timeout time.Duration) []render.Event {
	switch {
	case len(r.pending) > 0 || timeout == 0:
		glfw.PollEvents()
	case timeout < 0:
		glfw.WaitEvents()
	default:
		glfw.WaitEventsTimeout(timeout.Seconds())
	}
	events := r.pending
	r.pending = nil
	return events
}

func (r *glfwRenderer) Wake() { glfw.PostEmptyEvent() }

func (r *glfwRenderer) CreateTexture(pix []byte, width, height int) (render.Texture, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("bad texture: %dx%d with %d bytes", width, height, len(pix))
	}
	if int32(width) > r.maxTexSize || int32(height) > r.maxTexSize {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTextureTooLarge, width, height, r.maxTexSize)
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteTextures(1, &tex)
		return nil, fmt.Errorf("glTexImage2D failed: 0x%x", e)
	}
	return &texture{id: tex, w: width, h: height}, nil
}

func (r *glfwRenderer) DeleteTexture(t render.Texture) {
	if tex, ok := t.(*texture); ok && tex.id != 0 {
		gl.DeleteTextures(1, &tex.id)
		tex.id = 0
	}
}

func (r *glfwRenderer) Clear(c color.Color) {
	cr, cg, cb, ca := floats(c)
	gl.ClearColor(cr, cg, cb, ca)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (r *glfwRenderer) FillRect(rect types.Rect, c color.Color) {
	gl.Disable(gl.TEXTURE_2D)
	gl.Color4f(floats(c))
	x0, y0 := float32(rect.X), float32(rect.Y)
	x1, y1 := float32(rect.X+rect.W), float32(rect.Y+rect.H)
	gl.Begin(gl.QUADS)
	gl.Vertex2f(x0, y0)
	gl.Vertex2f(x1, y0)
	gl.Vertex2f(x1, y1)
	gl.Vertex2f(x0, y1)
	gl.End()
}

// floats converts c to straight-alpha components for glColor.
func floats(c color.Color) (float32, float32, float32, float32) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return float32(n.R) / 255, float32(n.G) / 255, float32(n.B) / 255, float32(n.A) / 255
}

func (r *glfwRenderer) Blit(t render.Texture, dst types.Rect, quarterTurns int, flip types.Flip) {
	tex, ok := t.(*texture)
	if !ok || tex.id == 0 {
		return
	}
	u0, u1, v0, v1 := float32(0), float32(1), float32(0), float32(1)
	switch flip {
	case types.FlipHorizontal:
		u0, u1 = u1, u0
	case types.FlipVertical:
		v0, v1 = v1, v0
	}

	cx, cy := dst.Center()
	hw, hh := float32(dst.W/2), float32(dst.H/2)

	gl.Enable(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.Color4f(1, 1, 1, 1)
	gl.PushMatrix()
	gl.Translated(cx, cy, 0)
	// With y pointing down a positive angle turns clockwise on screen.
	gl.Rotated(90*float64(((quarterTurns%4)+4)%4), 0, 0, 1)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(u0, v0)
	gl.Vertex2f(-hw, -hh)
	gl.TexCoord2f(u1, v0)
	gl.Vertex2f(hw, -hh)
	gl.TexCoord2f(u1, v1)
	gl.Vertex2f(hw, hh)
	gl.TexCoord2f(u0, v1)
	gl.Vertex2f(-hw, hh)
	gl.End()
	gl.PopMatrix()
	gl.Disable(gl.TEXTURE_2D)
}

func (r *glfwRenderer) Present() error {
	r.win.SwapBuffers()
	if e := gl.GetError(); e != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", e)
	}
	return nil
}

func (r *glfwRenderer) Size() (int, int) {
	return r.win.GetSize()
}

func (r *glfwRenderer) SetFullscreen(on bool) {
	if on == r.fullscreen {
		return
	}
	r.fullscreen = on
	if on {
		r.winX, r.winY = r.win.GetPos()
		r.winW, r.winH = r.win.GetSize()
		m := r.monitor()
		mode := m.GetVideoMode()
		r.win.SetMonitor(m, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
		return
	}
	r.win.SetMonitor(nil, r.winX, r.winY, r.winW, r.winH, 0)
}

// monitor returns the monitor containing the window center.
func (r *glfwRenderer) monitor() *glfw.Monitor {
	x, y := r.win.GetPos()
	w, h := r.win.GetSize()
	cx, cy := x+w/2, y+h/2
	best, bestDist := glfw.GetPrimaryMonitor(), math.MaxFloat64
	for _, m := range glfw.GetMonitors() {
		mx, my := m.GetPos()
		mode := m.GetVideoMode()
		if cx >= mx && cx < mx+mode.Width && cy >= my && cy < my+mode.Height {
			return m
		}
		d := math.Hypot(float64(cx-(mx+mode.Width/2)), float64(cy-(my+mode.Height/2)))
		if d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}

func (r *glfwRenderer) SetTitle(title string) { r.win.SetTitle(title) }

func (r *glfwRenderer) Close() {
	if r.win != nil {
		r.win.Destroy()
		r.win = nil
	}
	glfw.Terminate()
}
