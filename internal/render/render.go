package render

import (
	"image/color"
	"time"

	"github.com/matjam/glance/internal/types"
)

// Texture is an opaque render resource built from one RGBA8 frame.
type Texture interface {
	Size() (int, int)
}

// TextureFactory builds and releases render resources.
type TextureFactory interface {
	CreateTexture(pix []byte, width, height int) (Texture, error) // pix is straight-alpha RGBA8
	DeleteTexture(t Texture)
}

type Renderer interface {
	TextureFactory
	Clear(c color.Color)                                                // Clear the back buffer
	FillRect(r types.Rect, c color.Color)                               // Fill a rectangle
	Blit(t Texture, dst types.Rect, quarterTurns int, flip types.Flip) // Draw t into the unrotated rect dst, turned clockwise about its center
	Present() error                                                     // Show the back buffer
	Size() (int, int)                                                   // Get the dimensions of the window
	SetFullscreen(on bool)
	SetTitle(title string)
	Close()
}

type EventKind int

const (
	EventAction EventKind = iota
	EventScroll
	EventPress
	EventRelease
	EventMotion
	EventResize
	EventClose
)

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Event is one input event, already translated from the windowing system.
// Keyboard input arrives as EventAction; pointer events carry the cursor
// position in window coordinates.
type Event struct {
	Kind   EventKind
	Action types.Action
	Button Button
	X, Y   float64
	// Delta is the vertical scroll offset, positive away from the user.
	Delta float64
}

// EventSource is the single suspension point of the viewer loop.
type EventSource interface {
	// Wait blocks until input is available or timeout elapses and returns
	// the pending events. A negative timeout waits indefinitely.
	Wait(timeout time.Duration) []Event
	// Wake makes a blocked Wait return. Safe to call from any goroutine.
	Wake()
}

// Display is a window that both draws and produces input.
type Display interface {
	Renderer
	EventSource
}
