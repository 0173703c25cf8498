package decode

import (
	"bytes"
	"errors"
	"image"
	"io"

	"github.com/charmbracelet/log"
)

type Format string

const (
	FormatGIF  Format = "gif"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// Capability is the result of classifying a handle.
type Capability int

const (
	Still Capability = iota
	Animatable
)

func (c Capability) String() string {
	if c == Animatable {
		return "animatable"
	}
	return "still"
}

// Info is what a probe learns without decoding pixels.
type Info struct {
	Format      Format
	Width       int
	Height      int
	Orientation Orientation
	// Animated is the container's own animation flag (GIF always, WebP VP8X
	// animation bit, PNG acTL chunk).
	Animated bool
}

// source is the closed set of format variants a probe can produce.
type source interface {
	sealed()
	frames() (frameIterator, error)
	still() (image.Image, error)
}

// otherSource covers every format that is decoded as a still only.
type otherSource struct {
	data []byte
}

func (s *otherSource) sealed() {}

func (s *otherSource) frames() (frameIterator, error) {
	return nil, errors.New("format has no animation decoder")
}

func (s *otherSource) still() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(s.data))
	return img, err
}

// noCopy makes go vet's copylocks check reject copies of a Handle.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Handle is a probed, format-typed decoder. Info and Classify only borrow
// it; ExtractFrames and DecodeStill consume it, after which it is spent.
type Handle struct {
	_    noCopy
	path string
	info Info
	src  source
}

func (h *Handle) Path() string { return h.path }
func (h *Handle) Info() Info   { return h.info }

func (h *Handle) take() (source, error) {
	src := h.src
	if src == nil {
		return nil, loadError(KindDecodeFailed, h.path, ErrConsumed)
	}
	h.src = nil
	return src, nil
}

// Classify decides how a handle is decoded: GIF always attempts animation,
// WebP when the VP8X animation flag is set, PNG when an acTL chunk is
// present, and everything else is a still.
func Classify(h *Handle) Capability {
	switch src := h.src.(type) {
	case *gifSource:
		return Animatable
	case *webpSource:
		if src.features.animated {
			return Animatable
		}
		return Still
	case *pngSource:
		if src.apng {
			return Animatable
		}
		return Still
	case *otherSource:
		return Still
	default:
		return Still
	}
}

// ExtractFrames consumes h and drains its frame iterator. A decode error or
// a degenerate delay mid-sequence ends the sequence but keeps the frames
// decoded before it; a frame that fails validation ends it the same way.
func ExtractFrames(h *Handle) (Sequence, error) {
	src, err := h.take()
	if err != nil {
		return nil, err
	}
	it, err := src.frames()
	if err != nil {
		return nil, loadError(KindDecodeFailed, h.path, err)
	}

	var (
		seq  Sequence
		stop error
	)
	for {
		raw, err := it.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			stop = err
			break
		}
		if raw.delayDen == 0 {
			stop = errZeroDenominator
			break
		}
		if err := validateFrame(raw.pix, raw.width, raw.height); err != nil {
			stop = err
			break
		}
		seq = append(seq, Frame{
			Pix:      raw.pix,
			Width:    raw.width,
			Height:   raw.height,
			Offset:   image.Pt(raw.x, raw.y),
			Duration: frameDuration(raw.delayNum, raw.delayDen),
		})
	}

	if len(seq) == 0 {
		return nil, loadError(KindNoFrames, h.path, stop)
	}
	if stop != nil {
		log.Debugf("%s: keeping %d frames, sequence ended early: %v", h.path, len(seq), stop)
	}
	return seq, nil
}

// DecodeStill consumes h and returns its single RGBA8 frame.
func DecodeStill(h *Handle) (Frame, error) {
	src, err := h.take()
	if err != nil {
		return Frame{}, err
	}
	img, err := src.still()
	if err != nil {
		return Frame{}, loadError(KindDecodeFailed, h.path, err)
	}
	n := toNRGBA(img)
	w, hgt := n.Rect.Dx(), n.Rect.Dy()
	if err := validateFrame(n.Pix, w, hgt); err != nil {
		return Frame{}, loadError(KindNoFrames, h.path, err)
	}
	return Frame{Pix: n.Pix, Width: w, Height: hgt}, nil
}
