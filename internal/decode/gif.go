package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
)

const (
	gifExtension  = 0x21
	gifDescriptor = 0x2C
	gifTrailer    = 0x3B
	gifControl    = 0xF9
)

var errNotGIF = errors.New("gif: bad header")

type gifSource struct {
	data []byte
}

func (s *gifSource) sealed() {}

func (s *gifSource) frames() (frameIterator, error) {
	l, err := splitGIF(s.data)
	if err != nil {
		return nil, err
	}
	w, h := l.width, l.height
	if w == 0 || h == 0 {
		// Some encoders leave the logical screen empty.
		for _, f := range l.frames {
			w = max(w, f.rect.Max.X)
			h = max(h, f.rect.Max.Y)
		}
	}
	return &gifFrames{layout: l, canvas: newCanvas(w, h)}, nil
}

// still is the first frame composited onto the logical screen, so its size
// matches what a probe reports.
func (s *gifSource) still() (image.Image, error) {
	it, err := s.frames()
	if err != nil {
		return nil, err
	}
	f, err := it.Next()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("gif: no image")
	}
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{Pix: f.pix, Stride: 4 * f.width, Rect: image.Rect(0, 0, f.width, f.height)}, nil
}

// gifLayout is a GIF file cut at its block boundaries. Nothing is decoded.
type gifLayout struct {
	// head is the header, logical screen descriptor and global color table.
	head          []byte
	width, height int
	frames        []gifBlocks
	// err is the structural problem found after the last complete frame.
	err error
}

// gifBlocks is the byte range of one image.
type gifBlocks struct {
	control []byte // graphic control extension, nil if absent
	image   []byte // image descriptor through the data block terminator
	rect    image.Rectangle
}

func colorTableSize(flags byte) int {
	if flags&0x80 == 0 {
		return 0
	}
	return 3 << (int(flags&7) + 1)
}

// skipSubBlocks returns the offset just past the sub-block chain at pos.
func skipSubBlocks(data []byte, pos int) (int, error) {
	for {
		if pos >= len(data) {
			return 0, io.ErrUnexpectedEOF
		}
		n := int(data[pos])
		pos++
		if n == 0 {
			return pos, nil
		}
		pos += n
	}
}

// splitGIF walks the block structure of data. A damaged or truncated block
// ends the walk; the frames before it are kept and the damage is recorded
// in the layout.
func splitGIF(data []byte) (*gifLayout, error) {
	if len(data) < 13 || (string(data[:6]) != "GIF87a" && string(data[:6]) != "GIF89a") {
		return nil, errNotGIF
	}
	l := &gifLayout{
		width:  int(binary.LittleEndian.Uint16(data[6:])),
		height: int(binary.LittleEndian.Uint16(data[8:])),
	}
	pos := 13 + colorTableSize(data[10])
	if pos > len(data) {
		return nil, io.ErrUnexpectedEOF
	}
	l.head = data[:pos]

	var control []byte
	for {
		if pos >= len(data) {
			l.err = io.ErrUnexpectedEOF
			return l, nil
		}
		switch data[pos] {
		case gifExtension:
			if pos+2 > len(data) {
				l.err = io.ErrUnexpectedEOF
				return l, nil
			}
			end, err := skipSubBlocks(data, pos+2)
			if err != nil {
				l.err = err
				return l, nil
			}
			if data[pos+1] == gifControl {
				control = data[pos:end]
			}
			pos = end
		case gifDescriptor:
			start := pos
			if pos+11 > len(data) {
				l.err = io.ErrUnexpectedEOF
				return l, nil
			}
			d := data[pos+1 : pos+10]
			x, y := int(binary.LittleEndian.Uint16(d[0:])), int(binary.LittleEndian.Uint16(d[2:]))
			w, h := int(binary.LittleEndian.Uint16(d[4:])), int(binary.LittleEndian.Uint16(d[6:]))
			// Descriptor, local color table, then the LZW minimum code size.
			pos += 10 + colorTableSize(d[8]) + 1
			end, err := skipSubBlocks(data, pos)
			if err != nil {
				l.err = err
				return l, nil
			}
			l.frames = append(l.frames, gifBlocks{
				control: control,
				image:   data[start:end],
				rect:    image.Rect(x, y, x+w, y+h),
			})
			control = nil
			pos = end
		case gifTrailer:
			return l, nil
		default:
			l.err = fmt.Errorf("gif: unknown block 0x%02x at offset %d", data[pos], pos)
			return l, nil
		}
	}
}

// standalone rebuilds one image as a complete single-frame GIF. The logical
// screen grows to cover frames that overhang it.
func (l *gifLayout) standalone(b gifBlocks) []byte {
	var buf bytes.Buffer
	buf.Grow(len(l.head) + len(b.control) + len(b.image) + 1)
	buf.Write(l.head)
	hdr := buf.Bytes()
	binary.LittleEndian.PutUint16(hdr[6:], uint16(max(l.width, b.rect.Max.X)))
	binary.LittleEndian.PutUint16(hdr[8:], uint16(max(l.height, b.rect.Max.Y)))
	buf.Write(b.control)
	buf.Write(b.image)
	buf.WriteByte(gifTrailer)
	return buf.Bytes()
}

type gifFrames struct {
	layout *gifLayout
	canvas *canvas
	next   int
}

func (it *gifFrames) Next() (rawFrame, error) {
	if it.next >= len(it.layout.frames) {
		if it.layout.err != nil {
			return rawFrame{}, it.layout.err
		}
		return rawFrame{}, io.EOF
	}
	blocks := it.layout.frames[it.next]
	it.next++

	g, err := gif.DecodeAll(bytes.NewReader(it.layout.standalone(blocks)))
	if err != nil {
		return rawFrame{}, fmt.Errorf("frame %d: %w", it.next-1, err)
	}
	if len(g.Image) == 0 {
		return rawFrame{}, fmt.Errorf("frame %d: no image", it.next-1)
	}
	p, delay, disposal := g.Image[0], g.Delay[0], g.Disposal[0]

	if disposal == gif.DisposalPrevious {
		it.canvas.save()
	}
	// Paletted frames are positioned in canvas coordinates already.
	r := p.Rect.Intersect(it.canvas.bounds())
	it.canvas.paint(r, p.SubImage(r), true)

	// GIF delays are in hundredths of a second.
	f := it.canvas.emit(uint32(max(delay, 0))*10, 1)

	switch disposal {
	case gif.DisposalBackground:
		it.canvas.clear(r)
	case gif.DisposalPrevious:
		it.canvas.restore()
	}
	return f, nil
}
