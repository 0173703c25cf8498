package decode

import (
	"image"

	"golang.org/x/image/draw"
)

// canvas accumulates animation frames that only cover part of the logical
// screen, so every emitted frame is a full canvas at offset zero.
type canvas struct {
	img   *image.NRGBA
	saved *image.NRGBA
}

func newCanvas(w, h int) *canvas {
	return &canvas{img: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

func (c *canvas) bounds() image.Rectangle { return c.img.Rect }

// paint draws src into r. With blend the source is composited over the
// existing pixels, otherwise it replaces them.
func (c *canvas) paint(r image.Rectangle, src image.Image, blend bool) {
	op := draw.Src
	if blend {
		op = draw.Over
	}
	draw.Draw(c.img, r, src, src.Bounds().Min, op)
}

func (c *canvas) clear(r image.Rectangle) {
	draw.Draw(c.img, r, image.Transparent, image.Point{}, draw.Src)
}

func (c *canvas) save() {
	if c.saved == nil {
		c.saved = image.NewNRGBA(c.img.Rect)
	}
	copy(c.saved.Pix, c.img.Pix)
}

func (c *canvas) restore() {
	if c.saved != nil {
		copy(c.img.Pix, c.saved.Pix)
	}
}

func (c *canvas) emit(delayNum, delayDen uint32) rawFrame {
	pix := make([]byte, len(c.img.Pix))
	copy(pix, c.img.Pix)
	return rawFrame{
		pix:      pix,
		width:    c.img.Rect.Dx(),
		height:   c.img.Rect.Dy(),
		delayNum: delayNum,
		delayDen: delayDen,
	}
}

// toNRGBA converts any decoded image into a tightly packed straight-alpha
// RGBA8 buffer anchored at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) && n.Stride == 4*b.Dx() {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}
