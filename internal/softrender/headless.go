package softrender

import (
	"time"

	"github.com/matjam/glance/internal/render"
)

// Headless is a display without input. Its first wait reports a window
// close, so a viewer loop draws one frame and returns.
type Headless struct {
	*Renderer
}

var _ render.Display = (*Headless)(nil)

func NewHeadless(width, height int) *Headless {
	return &Headless{Renderer: New(width, height)}
}

func (h *Headless) Wait(time.Duration) []render.Event {
	return []render.Event{{Kind: render.EventClose}}
}

func (h *Headless) Wake() {}
