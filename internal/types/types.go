package types

import "math"

type Direction int

const (
	Next Direction = 1
	Prev Direction = -1
)

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// Flip is the mirror axis passed to a blit.
type Flip int

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
)

// Action is an abstract user action, independent of the input device.
type Action string

const (
	ActionResetView        Action = "reset-view"
	ActionZoomIn           Action = "zoom-in"
	ActionZoomOut          Action = "zoom-out"
	ActionZoomNative       Action = "zoom-native"
	ActionPanLeft          Action = "pan-left"
	ActionPanRight         Action = "pan-right"
	ActionPanUp            Action = "pan-up"
	ActionPanDown          Action = "pan-down"
	ActionRotateCW         Action = "rotate-cw"
	ActionRotateCCW        Action = "rotate-ccw"
	ActionToggleMirror     Action = "toggle-mirror"
	ActionToggleFullscreen Action = "toggle-fullscreen"
	ActionTogglePause      Action = "toggle-pause"
	ActionNext             Action = "next"
	ActionPrev             Action = "prev"
	ActionQuit             Action = "quit"
)

// Rect is an axis-aligned rectangle in window coordinates.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Floor snaps the rectangle's origin to whole pixels.
func (r Rect) Floor() Rect {
	return Rect{X: math.Floor(r.X), Y: math.Floor(r.Y), W: r.W, H: r.H}
}

// Inset grows the rectangle by the given margins; negative values shrink it.
func (r Rect) Inset(top, right, bottom, left float64) Rect {
	return Rect{X: r.X - left, Y: r.Y - top, W: r.W + left + right, H: r.H + top + bottom}
}

// Swapped returns the rectangle with its extents exchanged about the same
// center, which is how a quarter turn changes the on-screen footprint.
func (r Rect) Swapped() Rect {
	cx, cy := r.Center()
	return Rect{X: cx - r.H/2, Y: cy - r.W/2, W: r.H, H: r.W}
}
