// Package softrender draws into an in-memory back buffer with
// golang.org/x/image/draw. It backs the snapshot command and tests that
// need real pixels without a display.
package softrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/matjam/glance/internal/render"
	"github.com/matjam/glance/internal/types"
)

var ErrBadTexture = errors.New("softrender: pixel buffer does not match dimensions")

type texture struct {
	img *image.NRGBA
}

func (t *texture) Size() (int, int) { return t.img.Rect.Dx(), t.img.Rect.Dy() }

// Renderer is a render.Renderer backed by an NRGBA image.
type Renderer struct {
	back       *image.NRGBA
	title      string
	fullscreen bool
	presented  int
}

var _ render.Renderer = (*Renderer)(nil)

func New(width, height int) *Renderer {
	return &Renderer{back: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

func (r *Renderer) CreateTexture(pix []byte, width, height int) (render.Texture, error) {
	if width <= 0 || height <= 0 || len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrBadTexture, width, height, len(pix))
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return &texture{img: img}, nil
}

func (r *Renderer) DeleteTexture(t render.Texture) {
	if tex, ok := t.(*texture); ok {
		tex.img = nil
	}
}

func (r *Renderer) Clear(c color.Color) {
	draw.Draw(r.back, r.back.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Renderer) FillRect(rect types.Rect, c color.Color) {
	draw.Draw(r.back, pixelRect(rect), image.NewUniform(c), image.Point{}, draw.Over)
}

// Blit maps the texture onto dst, mirrored along flip and then turned
// clockwise about the center of dst.
func (r *Renderer) Blit(t render.Texture, dst types.Rect, quarterTurns int, flip types.Flip) {
	tex, ok := t.(*texture)
	if !ok || tex.img == nil || dst.W <= 0 || dst.H <= 0 {
		return
	}
	tw, th := tex.Size()
	sx, sy := dst.W/float64(tw), dst.H/float64(th)

	interp := draw.Interpolator(draw.CatmullRom)
	if sx >= 1 && sy >= 1 {
		interp = draw.NearestNeighbor
	}
	interp.Transform(r.back, blitMatrix(dst, sx, sy, quarterTurns, flip), tex.img, tex.img.Rect, draw.Over, nil)
}

// blitMatrix maps texture coordinates to window coordinates.
func blitMatrix(dst types.Rect, sx, sy float64, quarterTurns int, flip types.Flip) f64.Aff3 {
	cos, sin := [4]float64{1, 0, -1, 0}, [4]float64{0, 1, 0, -1}
	k := ((quarterTurns % 4) + 4) % 4
	c, s := cos[k], sin[k]

	fx, fy := 1.0, 1.0
	switch flip {
	case types.FlipHorizontal:
		fx = -1
	case types.FlipVertical:
		fy = -1
	}

	hw, hh := dst.W/2, dst.H/2
	cx, cy := dst.Center()
	return f64.Aff3{
		c * fx * sx, -s * fy * sy, cx - (c*fx*hw - s*fy*hh),
		s * fx * sx, c * fy * sy, cy - (s*fx*hw + c*fy*hh),
	}
}

func pixelRect(r types.Rect) image.Rectangle {
	f := r.Floor()
	return image.Rect(int(f.X), int(f.Y), int(f.X+f.W), int(f.Y+f.H))
}

func (r *Renderer) Present() error {
	r.presented++
	return nil
}

func (r *Renderer) Size() (int, int) { return r.back.Rect.Dx(), r.back.Rect.Dy() }

func (r *Renderer) SetFullscreen(on bool) { r.fullscreen = on }
func (r *Renderer) SetTitle(title string) { r.title = title }
func (r *Renderer) Close()                {}

// Image returns the back buffer.
func (r *Renderer) Image() *image.NRGBA { return r.back }

func (r *Renderer) Title() string    { return r.title }
func (r *Renderer) Fullscreen() bool { return r.fullscreen }

// Presented counts Present calls.
func (r *Renderer) Presented() int { return r.presented }
