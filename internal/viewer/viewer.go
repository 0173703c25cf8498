// Package viewer holds the session state of one viewer window and the event
// loop that drives it. Every user action is a method on Session; the loop
// translates input events and remote commands into those methods.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/matjam/glance/internal/decode"
	"github.com/matjam/glance/internal/framestore"
	"github.com/matjam/glance/internal/ipc"
	"github.com/matjam/glance/internal/navigate"
	"github.com/matjam/glance/internal/playback"
	"github.com/matjam/glance/internal/render"
	"github.com/matjam/glance/internal/types"
	"github.com/matjam/glance/internal/view"
)

const AppName = "glance"

// Windowed mode clears to transparent so only the image and its backing
// show on a compositing desktop. Fullscreen clears to opaque black.
var (
	shadowColor          = color.NRGBA{A: 38}
	windowedBackground   = color.Transparent
	fullscreenBackground = color.Black
)

type Config struct {
	PanStep       float64       // pixels per pan key press
	Shadow        bool          // drop shadow and white backing in windowed mode
	ExitOnClick   bool          // quit on a left click that neither dragged nor zoomed
	MinFrameDelay time.Duration // floor for zero-length animation frames
	Fullscreen    bool          // start fullscreen
}

func DefaultConfig() Config {
	return Config{
		PanStep:       40,
		Shadow:        true,
		ExitOnClick:   true,
		MinFrameDelay: playback.DefaultMinFrameDelay,
	}
}

// Control is the remote command queue served by the control socket.
type Control interface {
	Commands() <-chan ipc.Command
	SetStatus(ipc.Status)
}

// Anchor is the window point a zoom keeps fixed.
type Anchor struct {
	X, Y float64
}

// pointer tracks the left button between press and release.
type pointer struct {
	x, y    float64
	pressed bool
	moved   bool
	zoomed  bool
}

type Session struct {
	cfg      Config
	fs       afero.Fs
	display  render.Display
	pipeline *decode.Pipeline
	store    *framestore.Store
	sched    *playback.Scheduler
	view     *view.State
	nav      *navigate.Index
	control  Control

	path       string
	frames     int
	fullscreen bool
	ptr        pointer
	dirty      bool
	quit       bool
}

// New returns a session drawing to display and reading files through fsys.
// A nil fsys reads the OS filesystem and a nil clock uses real time.
func New(display render.Display, fsys afero.Fs, clock clockwork.Clock, cfg Config) *Session {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	s := &Session{
		cfg:      cfg,
		fs:       fsys,
		display:  display,
		pipeline: decode.NewPipeline(fsys),
		store:    framestore.New(display),
		sched:    playback.New(clock, cfg.MinFrameDelay),
		view:     view.New(),
	}
	s.view.SetFullscreen(cfg.Fullscreen)
	s.syncFullscreen()
	return s
}

// Attach connects the session to a remote command queue.
func (s *Session) Attach(c Control) { s.control = c }

// Close releases every render resource the session owns.
func (s *Session) Close() { s.store.Close() }

// Open loads path and shows it, replacing the current image. A per-file
// failure is returned as a *decode.LoadError and leaves the current image
// in place. Any other error means the display is unusable.
func (s *Session) Open(path string) error {
	img, err := s.pipeline.Load(path)
	if err != nil {
		return err
	}
	if s.nav == nil {
		s.nav = navigate.New(s.fs, img.Path)
	} else {
		s.nav.Reset(img.Path)
	}
	return s.show(img)
}

func (s *Session) show(img *decode.Image) error {
	if err := s.store.Replace(img.Frames); err != nil {
		return fmt.Errorf("building textures for %s: %w", img.Path, err)
	}
	first := img.Frames[0]
	turns, mirror := img.Info.Orientation.Transform()
	s.view.SetImage(first.Width, first.Height, turns, mirror)
	s.view.Resize(s.display.Size())
	s.view.Reset()
	s.sched.Load(img.Frames.Durations())

	s.path = img.Path
	s.frames = len(img.Frames)
	s.display.SetTitle(filepath.Base(img.Path) + " - " + AppName)
	s.dirty = true
	log.Infof("showing %s (%dx%d, %d frames, %s)", img.Path, first.Width, first.Height, s.frames, img.Info.Format)
	return nil
}

// Navigate moves to the next loadable sibling in direction d. It returns
// navigate.ErrExhausted when no file in the directory loads.
func (s *Session) Navigate(d types.Direction) error {
	if s.nav == nil {
		return nil
	}
	var img *decode.Image
	_, err := s.nav.Advance(d, func(p string) error {
		var err error
		img, err = s.pipeline.Load(p)
		return err
	})
	if err != nil {
		return err
	}
	return s.show(img)
}

func (s *Session) ResetView() {
	s.view.Reset()
	s.changed()
}

// ZoomStep zooms one level in (delta > 0) or out about a.
func (s *Session) ZoomStep(delta int, a Anchor) {
	switch {
	case delta > 0:
		s.ZoomTo(s.view.Level()+1, a)
	case delta < 0:
		s.ZoomTo(s.view.Level()-1, a)
	}
}

func (s *Session) ZoomTo(level int, a Anchor) {
	s.view.ZoomToLevelAt(a.X, a.Y, level)
	if s.ptr.pressed {
		s.ptr.zoomed = true
	}
	s.changed()
}

func (s *Session) PanBy(dx, dy float64) {
	s.view.PanBy(dx, dy)
	s.changed()
}

func (s *Session) BeginDrag(x, y float64) {
	s.ptr = pointer{x: x, y: y, pressed: true}
	s.view.BeginDrag(x, y)
}

func (s *Session) DragTo(x, y float64) {
	if x != s.ptr.x || y != s.ptr.y {
		s.ptr.moved = true
	}
	s.ptr.x, s.ptr.y = x, y
	if !s.view.Dragging() {
		return
	}
	s.view.DragTo(x, y)
	s.changed()
}

// EndDrag finishes a drag. A release that neither moved nor zoomed counts
// as a click and quits when the session is configured to.
func (s *Session) EndDrag() {
	click := s.ptr.pressed && !s.ptr.moved && !s.ptr.zoomed
	s.ptr.pressed = false
	s.view.EndDrag()
	if click && s.cfg.ExitOnClick {
		s.Quit()
	}
}

func (s *Session) Rotate(dir int) {
	s.view.Rotate(dir)
	s.changed()
}

func (s *Session) ToggleMirror() {
	s.view.ToggleMirror()
	s.changed()
}

func (s *Session) ToggleFullscreen() {
	s.view.SetFullscreen(!s.view.Fullscreen())
	s.changed()
}

func (s *Session) TogglePause() {
	s.sched.Toggle()
	log.Debugf("playback %s", s.sched.State())
}

func (s *Session) Quit() { s.quit = true }

func (s *Session) Resize(w, h int) {
	s.view.Resize(w, h)
	s.dirty = true
}

// changed marks the view for redraw and follows any fullscreen change the
// last operation made.
func (s *Session) changed() {
	s.syncFullscreen()
	s.dirty = true
}

func (s *Session) syncFullscreen() {
	if fs := s.view.Fullscreen(); fs != s.fullscreen {
		s.fullscreen = fs
		s.display.SetFullscreen(fs)
	}
}

// keyAnchor is where keyboard zoom is anchored: the cursor while the left
// button is held, the window center otherwise.
func (s *Session) keyAnchor() Anchor {
	if s.ptr.pressed {
		return Anchor{X: s.ptr.x, Y: s.ptr.y}
	}
	w, h := s.display.Size()
	return Anchor{X: float64(w) / 2, Y: float64(h) / 2}
}

// Run shows frames and handles input until Quit, a window close, ctx ending,
// or a fatal error. The only blocking call is the display wait, bounded by
// the next animation deadline.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, s.display.Wake)
	defer stop()

	s.publish()
	if err := s.render(); err != nil {
		return err
	}
	for !s.quit {
		if ctx.Err() != nil {
			return nil
		}
		for _, ev := range s.display.Wait(s.sched.Timeout()) {
			if err := s.handle(ev); err != nil {
				return err
			}
		}
		if err := s.drainCommands(); err != nil {
			return err
		}
		if s.quit {
			break
		}
		if s.sched.Tick() {
			s.dirty = true
		}
		if s.dirty {
			if err := s.render(); err != nil {
				return err
			}
		}
	}
	log.Debug("viewer loop finished")
	return nil
}

func (s *Session) handle(ev render.Event) error {
	switch ev.Kind {
	case render.EventAction:
		return s.dispatch(ev.Action)
	case render.EventScroll:
		s.ZoomStep(sign(ev.Delta), Anchor{X: ev.X, Y: ev.Y})
	case render.EventPress:
		if ev.Button == render.ButtonLeft {
			s.BeginDrag(ev.X, ev.Y)
		}
	case render.EventRelease:
		switch ev.Button {
		case render.ButtonLeft:
			s.EndDrag()
		case render.ButtonMiddle:
			s.ToggleFullscreen()
		}
	case render.EventMotion:
		s.DragTo(ev.X, ev.Y)
	case render.EventResize:
		s.Resize(int(ev.X), int(ev.Y))
	case render.EventClose:
		s.Quit()
	}
	return nil
}

func (s *Session) dispatch(a types.Action) error {
	step := s.cfg.PanStep
	switch a {
	case types.ActionResetView:
		s.ResetView()
	case types.ActionZoomIn:
		s.ZoomStep(1, s.keyAnchor())
	case types.ActionZoomOut:
		s.ZoomStep(-1, s.keyAnchor())
	case types.ActionZoomNative:
		s.ZoomTo(0, s.keyAnchor())
	case types.ActionPanLeft:
		s.PanBy(step, 0)
	case types.ActionPanRight:
		s.PanBy(-step, 0)
	case types.ActionPanUp:
		s.PanBy(0, step)
	case types.ActionPanDown:
		s.PanBy(0, -step)
	case types.ActionRotateCW:
		s.Rotate(1)
	case types.ActionRotateCCW:
		s.Rotate(-1)
	case types.ActionToggleMirror:
		s.ToggleMirror()
	case types.ActionToggleFullscreen:
		s.ToggleFullscreen()
	case types.ActionTogglePause:
		s.TogglePause()
	case types.ActionNext:
		return s.Navigate(types.Next)
	case types.ActionPrev:
		return s.Navigate(types.Prev)
	case types.ActionQuit:
		s.Quit()
	default:
		log.Debugf("unhandled action %q", a)
	}
	return nil
}

func (s *Session) drainCommands() error {
	if s.control == nil {
		return nil
	}
	defer s.publish()
	for {
		select {
		case cmd := <-s.control.Commands():
			if err := s.command(cmd); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Session) command(cmd ipc.Command) error {
	log.Infof("received %s command", cmd.Type)
	switch cmd.Type {
	case ipc.CommandQuit:
		s.Quit()
	case ipc.CommandNext:
		return s.Navigate(types.Next)
	case ipc.CommandPrev:
		return s.Navigate(types.Prev)
	case ipc.CommandPause:
		s.TogglePause()
	case ipc.CommandLoad:
		if len(cmd.Args) == 0 {
			log.Error("load command without a path")
			return nil
		}
		err := s.Open(cmd.Args[0])
		var le *decode.LoadError
		if errors.As(err, &le) {
			log.Errorf("cannot load %s: %v", cmd.Args[0], err)
			return nil
		}
		return err
	default:
		log.Errorf("unknown command: %s", cmd.Type)
	}
	return nil
}

// Status is a snapshot of the session for remote callers.
func (s *Session) Status() ipc.Status {
	st := ipc.Status{
		File:       s.path,
		Frame:      s.sched.Index(),
		Frames:     s.frames,
		Playback:   s.sched.State().String(),
		Level:      s.view.Level(),
		Fullscreen: s.view.Fullscreen(),
	}
	if s.nav != nil {
		st.Index, st.Count = s.nav.Position()
	}
	return st
}

func (s *Session) publish() {
	if s.control != nil {
		s.control.SetStatus(s.Status())
	}
}

func (s *Session) render() error {
	s.dirty = false
	p := s.view.Present()
	if p.Fullscreen {
		s.display.Clear(fullscreenBackground)
	} else {
		s.display.Clear(windowedBackground)
	}
	if tex := s.store.Frame(s.sched.Index()); tex != nil {
		if !p.Fullscreen && s.cfg.Shadow {
			s.display.FillRect(p.Bounds.Inset(5, 6, 7, 6), shadowColor)
			s.display.FillRect(p.Bounds, color.White)
		}
		s.display.Blit(tex, p.Dst, p.Turns, p.Flip)
	}
	if err := s.display.Present(); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
