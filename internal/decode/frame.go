package decode

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"
)

// Frame is one decoded RGBA8 raster (straight alpha) with its placement
// and display duration. Duration is zero for still images.
type Frame struct {
	Pix      []byte
	Width    int
	Height   int
	Offset   image.Point
	Duration time.Duration
}

// Sequence is a non-empty ordered list of frames.
type Sequence []Frame

// Static reports whether the sequence is a single still frame.
func (s Sequence) Static() bool {
	return len(s) == 1 && s[0].Duration == 0
}

func (s Sequence) Durations() []time.Duration {
	d := make([]time.Duration, len(s))
	for i, f := range s {
		d[i] = f.Duration
	}
	return d
}

// rawFrame is what a format's frame iterator yields before validation.
type rawFrame struct {
	pix      []byte
	width    int
	height   int
	x, y     int
	delayNum uint32
	delayDen uint32
}

// frameIterator yields frames until io.EOF.
type frameIterator interface {
	Next() (rawFrame, error)
}

var (
	errDegenerate      = errors.New("degenerate frame dimensions")
	errDimensions      = errors.New("frame dimensions overflow")
	errBufferLength    = errors.New("frame buffer length mismatch")
	errZeroDenominator = errors.New("frame delay denominator is zero")
)

// validateFrame checks that w*h*4 fits in an int32 and that pix holds
// exactly that many bytes.
func validateFrame(pix []byte, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", errDegenerate, w, h)
	}
	if w > math.MaxInt32/4 || w*4 > math.MaxInt32/h {
		return fmt.Errorf("%w: %dx%d", errDimensions, w, h)
	}
	if len(pix) != w*4*h {
		return fmt.Errorf("%w: have %d bytes, want %d", errBufferLength, len(pix), w*4*h)
	}
	return nil
}

func frameDuration(num, den uint32) time.Duration {
	return time.Duration(num) * time.Millisecond / time.Duration(den)
}
