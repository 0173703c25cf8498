// Package view holds the zoom, pan, rotation, mirror and fullscreen state of
// the displayed image and derives the geometry handed to the renderer.
package view

import (
	"math"

	"github.com/matjam/glance/internal/types"
)

// Zoom levels are clamped to this range; each level is a factor of sqrt(2).
const (
	MinLevel = -32
	MaxLevel = 32
)

// Scale returns the linear zoom factor for a level: sqrt(2)^level.
func Scale(level int) float64 {
	return math.Exp2(0.5 * float64(level))
}

func clampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

type drag struct {
	active     bool
	cursorX    float64
	cursorY    float64
	originPanX float64
	originPanY float64
	// last cursor position seen, used to rebase the drag after a zoom
	lastX, lastY float64
}

// State is the view of one image in one window. The zero value is usable
// once SetImage and Resize have been called.
type State struct {
	imgW, imgH int
	winW, winH int

	level int
	scale float64
	// rect is the image position in window coordinates with the unrotated
	// image extents times scale.
	rect types.Rect

	turns      int
	mirror     bool
	fullscreen bool

	initTurns  int
	initMirror bool

	drag drag
}

func New() *State {
	return &State{scale: 1}
}

// SetImage installs new image dimensions and the orientation Reset restores.
// It does not fit; call Reset when the window size is known.
func (s *State) SetImage(w, h, turns int, mirror bool) {
	s.imgW, s.imgH = w, h
	s.initTurns = ((turns % 4) + 4) % 4
	s.initMirror = mirror
	s.turns, s.mirror = s.initTurns, s.initMirror
	s.setLevel(0)
}

// Resize records the window size used by fullscreen presentation and
// window-centered zoom.
func (s *State) Resize(w, h int) {
	s.winW, s.winH = w, h
}

// Reset restores the initial orientation and fits the image to the window.
func (s *State) Reset() {
	s.turns, s.mirror = s.initTurns, s.initMirror
	s.Fit(s.winW, s.winH)
}

// rotated returns the image extents as they appear on screen.
func (s *State) rotated() (int, int) {
	if s.turns%2 == 1 {
		return s.imgH, s.imgW
	}
	return s.imgW, s.imgH
}

func (s *State) setLevel(level int) {
	s.level = clampLevel(level)
	s.scale = Scale(s.level)
	s.rect.W = float64(s.imgW) * s.scale
	s.rect.H = float64(s.imgH) * s.scale
}

// Fit picks the largest zoom level at which the rotated image fits the
// window and centers it.
func (s *State) Fit(winW, winH int) {
	s.winW, s.winH = winW, winH
	iw, ih := s.rotated()
	if iw <= 0 || ih <= 0 || winW <= 0 || winH <= 0 {
		return
	}
	s.setLevel(int(math.Floor(2 * math.Log2(float64(winW)/float64(iw)))))
	if float64(ih)*s.scale > float64(winH) {
		s.setLevel(int(math.Floor(2 * math.Log2(float64(winH)/float64(ih)))))
	}
	s.rect.X = (float64(winW) - s.rect.W) / 2
	s.rect.Y = (float64(winH) - s.rect.H) / 2
}

// ZoomToLevelAt changes the zoom level keeping the image point under the
// anchor fixed on screen. Leaves fullscreen.
func (s *State) ZoomToLevelAt(ax, ay float64, level int) {
	s.fullscreen = false
	px := (ax - s.rect.X) / s.scale
	py := (ay - s.rect.Y) / s.scale
	s.setLevel(level)
	s.rect.X = ax - px*s.scale
	s.rect.Y = ay - py*s.scale
	if s.drag.active {
		s.BeginDrag(s.drag.lastX, s.drag.lastY)
	}
}

// ZoomToLevelAtCenter zooms about the window center.
func (s *State) ZoomToLevelAtCenter(level int) {
	s.ZoomToLevelAt(float64(s.winW)/2, float64(s.winH)/2, level)
}

// BeginDrag saves the cursor and pan position a drag is measured from.
func (s *State) BeginDrag(cx, cy float64) {
	s.drag = drag{
		active:     true,
		cursorX:    cx,
		cursorY:    cy,
		originPanX: s.rect.X,
		originPanY: s.rect.Y,
		lastX:      cx,
		lastY:      cy,
	}
}

// DragTo moves the image by the cursor's offset from the drag start.
// Leaves fullscreen.
func (s *State) DragTo(cx, cy float64) {
	if !s.drag.active {
		return
	}
	s.fullscreen = false
	s.drag.lastX, s.drag.lastY = cx, cy
	s.rect.X = s.drag.originPanX + (cx - s.drag.cursorX)
	s.rect.Y = s.drag.originPanY + (cy - s.drag.cursorY)
}

func (s *State) EndDrag()       { s.drag.active = false }
func (s *State) Dragging() bool { return s.drag.active }

// PanBy moves the image by a vector. Leaves fullscreen.
func (s *State) PanBy(dx, dy float64) {
	s.fullscreen = false
	s.rect.X += dx
	s.rect.Y += dy
}

// Rotate turns the view a quarter turn clockwise (dir > 0) or
// counter-clockwise. With mirroring on, the stored turn runs the other way
// so the keys keep their on-screen meaning.
func (s *State) Rotate(dir int) {
	step := 1
	if (dir < 0) != s.mirror {
		step = 3
	}
	s.turns = (s.turns + step) % 4
}

func (s *State) ToggleMirror() { s.mirror = !s.mirror }

func (s *State) SetFullscreen(on bool) { s.fullscreen = on }

func (s *State) Fullscreen() bool   { return s.fullscreen }
func (s *State) Level() int         { return s.level }
func (s *State) ZoomScale() float64 { return s.scale }
func (s *State) Turns() int         { return s.turns }
func (s *State) Mirror() bool       { return s.mirror }
func (s *State) Rect() types.Rect   { return s.rect }

// Presentation is what the renderer needs to draw one frame.
type Presentation struct {
	// Dst is the unrotated destination rectangle of the blit.
	Dst types.Rect
	// Bounds is the on-screen footprint after rotation.
	Bounds types.Rect
	Turns  int
	Flip   types.Flip
	// Fullscreen is set when the geometry is the stateless best fit.
	Fullscreen bool
}

// Present computes the blit geometry. Windowed geometry derives from the
// stored pan rectangle; fullscreen geometry is recomputed every call and
// never stored.
func (s *State) Present() Presentation {
	p := Presentation{Turns: s.turns, Flip: s.flip(), Fullscreen: s.fullscreen}
	if s.fullscreen {
		p.Bounds = s.bestFit()
	} else {
		b := s.rect
		if s.turns%2 == 1 {
			b = b.Swapped()
		}
		p.Bounds = b.Floor()
	}
	p.Dst = p.Bounds
	if s.turns%2 == 1 {
		p.Dst = p.Bounds.Swapped()
	}
	return p
}

func (s *State) bestFit() types.Rect {
	iw, ih := s.rotated()
	if iw <= 0 || ih <= 0 {
		return types.Rect{}
	}
	ww, wh := float64(s.winW), float64(s.winH)
	r := types.Rect{W: ww, H: float64(ih) * ww / float64(iw)}
	if r.H > wh {
		r.W = float64(iw) * wh / float64(ih)
		r.H = wh
	}
	r.X = (ww - r.W) / 2
	r.Y = (wh - r.H) / 2
	return r.Floor()
}

// flip picks the blit mirror axis. After an odd quarter turn the image's
// horizontal axis lies vertically on screen.
func (s *State) flip() types.Flip {
	switch {
	case !s.mirror:
		return types.FlipNone
	case s.turns%2 == 1:
		return types.FlipVertical
	default:
		return types.FlipHorizontal
	}
}
