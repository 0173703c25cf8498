package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"golang.org/x/image/webp"
)

// VP8X feature flags.
const (
	vp8xAnimation = 1 << 1
	vp8xAlpha     = 1 << 4
)

// ANMF frame flags.
const (
	anmfDispose = 1 << 0
	anmfNoBlend = 1 << 1
)

var errWebPStructure = errors.New("webp: malformed container")

type riffChunk struct {
	fourcc string
	data   []byte
}

// readRIFFChunks walks the chunks of a RIFF/WEBP container (or of an ANMF
// payload when nested is true). A truncated tail ends the walk early.
func readRIFFChunks(data []byte, nested bool) ([]riffChunk, error) {
	rest := data
	if !nested {
		if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
			return nil, errWebPStructure
		}
		rest = data[12:]
	}
	var chunks []riffChunk
	for len(rest) >= 8 {
		n := binary.LittleEndian.Uint32(rest[4:8])
		if uint64(n) > uint64(len(rest)-8) {
			return chunks, fmt.Errorf("%w: truncated %q chunk", errWebPStructure, rest[0:4])
		}
		chunks = append(chunks, riffChunk{fourcc: string(rest[0:4]), data: rest[8 : 8+n]})
		// Chunks are padded to an even size.
		adv := 8 + int(n) + int(n&1)
		if adv > len(rest) {
			break
		}
		rest = rest[adv:]
	}
	return chunks, nil
}

func uint24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}

// webpFeatures is what the container header says about the image.
type webpFeatures struct {
	animated      bool
	width, height int
	exif          []byte
}

func readWebPFeatures(data []byte) webpFeatures {
	var f webpFeatures
	chunks, _ := readRIFFChunks(data, false)
	for _, c := range chunks {
		switch c.fourcc {
		case "VP8X":
			if len(c.data) >= 10 {
				f.animated = c.data[0]&vp8xAnimation != 0
				f.width = uint24(c.data[4:7]) + 1
				f.height = uint24(c.data[7:10]) + 1
			}
		case "EXIF":
			f.exif = c.data
		}
	}
	return f
}

type webpSource struct {
	data     []byte
	features webpFeatures
}

func (s *webpSource) sealed() {}

func (s *webpSource) still() (image.Image, error) {
	return webp.Decode(bytes.NewReader(s.data))
}

func (s *webpSource) frames() (frameIterator, error) {
	chunks, err := readRIFFChunks(s.data, false)
	if err != nil && len(chunks) == 0 {
		return nil, err
	}
	var anmf [][]byte
	for _, c := range chunks {
		if c.fourcc == "ANMF" {
			anmf = append(anmf, c.data)
		}
	}
	return &webpFrames{
		anmf:   anmf,
		canvas: newCanvas(s.features.width, s.features.height),
		decode: webpFrameDecoder,
	}, nil
}

type webpFrames struct {
	anmf   [][]byte
	canvas *canvas
	next   int
	// decode turns a standalone WebP stream into an image.
	decode func([]byte) (image.Image, error)
}

func (it *webpFrames) Next() (rawFrame, error) {
	if it.next >= len(it.anmf) {
		return rawFrame{}, io.EOF
	}
	i := it.next
	it.next++

	p := it.anmf[i]
	if len(p) < 16 {
		return rawFrame{}, fmt.Errorf("%w: ANMF frame %d header", errWebPStructure, i)
	}
	x := uint24(p[0:3]) * 2
	y := uint24(p[3:6]) * 2
	w := uint24(p[6:9]) + 1
	h := uint24(p[9:12]) + 1
	duration := uint24(p[12:15])
	flags := p[15]

	img, err := it.decode(standaloneWebP(p[16:], w, h))
	if err != nil {
		return rawFrame{}, fmt.Errorf("webp frame %d: %w", i, err)
	}

	r := image.Rect(x, y, x+w, y+h).Intersect(it.canvas.bounds())
	it.canvas.paint(r, img, flags&anmfNoBlend == 0)
	out := it.canvas.emit(uint32(duration), 1)
	if flags&anmfDispose != 0 {
		it.canvas.clear(r)
	}
	return out, nil
}

// standaloneWebP wraps the bitstream chunks of one ANMF frame into a
// complete still WebP file. Frames with an ALPH chunk need a VP8X header.
func standaloneWebP(frameData []byte, w, h int) []byte {
	sub, _ := readRIFFChunks(frameData, true)
	var alpha, bitstream *riffChunk
	for i := range sub {
		switch sub[i].fourcc {
		case "ALPH":
			alpha = &sub[i]
		case "VP8 ", "VP8L":
			bitstream = &sub[i]
		}
	}

	var body bytes.Buffer
	if alpha != nil && bitstream != nil && bitstream.fourcc == "VP8 " {
		var vp8x [10]byte
		vp8x[0] = vp8xAlpha
		putUint24(vp8x[4:7], w-1)
		putUint24(vp8x[7:10], h-1)
		writeRIFFChunk(&body, "VP8X", vp8x[:])
		writeRIFFChunk(&body, alpha.fourcc, alpha.data)
	}
	if bitstream != nil {
		writeRIFFChunk(&body, bitstream.fourcc, bitstream.data)
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(4+body.Len()))
	out.Write(size[:])
	out.WriteString("WEBP")
	out.Write(body.Bytes())
	return out.Bytes()
}

func putUint24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

func writeRIFFChunk(w *bytes.Buffer, fourcc string, data []byte) {
	var hdr [8]byte
	copy(hdr[:4], fourcc)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(data)))
	w.Write(hdr[:])
	w.Write(data)
	if len(data)&1 == 1 {
		w.WriteByte(0)
	}
}

var webpFrameDecoder = func(b []byte) (image.Image, error) {
	return webp.Decode(bytes.NewReader(b))
}
