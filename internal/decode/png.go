package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// APNG frame control ops.
const (
	apngDisposeNone       = 0
	apngDisposeBackground = 1
	apngDisposePrevious   = 2
	apngBlendSource       = 0
	apngBlendOver         = 1
)

var errPNGStructure = errors.New("png: malformed chunk structure")

type pngChunk struct {
	typ  string
	data []byte
}

// readPNGChunks splits a PNG stream into chunks, stopping after IEND.
// CRCs are left to image/png, which checks them when a frame is decoded.
func readPNGChunks(data []byte) ([]pngChunk, error) {
	if len(data) < len(pngSignature) || string(data[:len(pngSignature)]) != pngSignature {
		return nil, errPNGStructure
	}
	var chunks []pngChunk
	rest := data[len(pngSignature):]
	for len(rest) >= 12 {
		n := binary.BigEndian.Uint32(rest[:4])
		if uint64(n)+12 > uint64(len(rest)) {
			return chunks, fmt.Errorf("%w: truncated %q chunk", errPNGStructure, rest[4:8])
		}
		c := pngChunk{typ: string(rest[4:8]), data: rest[8 : 8+n]}
		chunks = append(chunks, c)
		rest = rest[12+n:]
		if c.typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

// isAPNG reports whether an acTL chunk precedes the first IDAT.
func isAPNG(data []byte) bool {
	chunks, _ := readPNGChunks(data)
	for _, c := range chunks {
		switch c.typ {
		case "acTL":
			return true
		case "IDAT":
			return false
		}
	}
	return false
}

func pngExif(data []byte) []byte {
	chunks, _ := readPNGChunks(data)
	for _, c := range chunks {
		if c.typ == "eXIf" {
			return c.data
		}
	}
	return nil
}

type pngSource struct {
	data []byte
	apng bool
}

func (s *pngSource) sealed() {}

func (s *pngSource) still() (image.Image, error) {
	return png.Decode(bytes.NewReader(s.data))
}

type apngFrame struct {
	width, height  int
	x, y           int
	delayNum       uint16
	delayDen       uint16
	dispose, blend byte
	data           [][]byte // IDAT or fdAT payloads, sequence number stripped
}

func (s *pngSource) frames() (frameIterator, error) {
	chunks, err := readPNGChunks(s.data)
	if err != nil && len(chunks) == 0 {
		return nil, err
	}

	var (
		ihdr   []byte
		shared []pngChunk // PLTE, tRNS and friends needed to decode every frame
		frames []*apngFrame
		cur    *apngFrame
		seenID bool
	)
chunkLoop:
	for _, c := range chunks {
		switch c.typ {
		case "IHDR":
			ihdr = c.data
		case "fcTL":
			f, fcErr := parseFCTL(c.data)
			if fcErr != nil {
				// Keep the frames described so far.
				break chunkLoop
			}
			frames = append(frames, f)
			cur = f
		case "IDAT":
			seenID = true
			// IDAT only belongs to the animation when an fcTL preceded it.
			if cur != nil && len(frames) == 1 {
				cur.data = append(cur.data, c.data)
			}
		case "fdAT":
			if cur != nil && len(c.data) >= 4 {
				cur.data = append(cur.data, c.data[4:])
			}
		case "PLTE", "tRNS", "gAMA", "cHRM", "sRGB", "iCCP", "sBIT":
			if !seenID {
				shared = append(shared, c)
			}
		}
	}
	if len(ihdr) != 13 {
		return nil, fmt.Errorf("%w: missing IHDR", errPNGStructure)
	}
	w := int(binary.BigEndian.Uint32(ihdr[0:4]))
	h := int(binary.BigEndian.Uint32(ihdr[4:8]))
	return &apngFrames{ihdr: ihdr, shared: shared, frames: frames, canvas: newCanvas(w, h)}, nil
}

func parseFCTL(b []byte) (*apngFrame, error) {
	if len(b) != 26 {
		return nil, fmt.Errorf("%w: fcTL length %d", errPNGStructure, len(b))
	}
	return &apngFrame{
		width:    int(binary.BigEndian.Uint32(b[4:8])),
		height:   int(binary.BigEndian.Uint32(b[8:12])),
		x:        int(binary.BigEndian.Uint32(b[12:16])),
		y:        int(binary.BigEndian.Uint32(b[16:20])),
		delayNum: binary.BigEndian.Uint16(b[20:22]),
		delayDen: binary.BigEndian.Uint16(b[22:24]),
		dispose:  b[24],
		blend:    b[25],
	}, nil
}

type apngFrames struct {
	ihdr   []byte
	shared []pngChunk
	frames []*apngFrame
	canvas *canvas
	next   int
}

func (it *apngFrames) Next() (rawFrame, error) {
	if it.next >= len(it.frames) {
		return rawFrame{}, io.EOF
	}
	i := it.next
	it.next++
	f := it.frames[i]
	if len(f.data) == 0 {
		return rawFrame{}, fmt.Errorf("%w: frame %d has no image data", errPNGStructure, i)
	}

	img, err := png.Decode(bytes.NewReader(it.standalone(f)))
	if err != nil {
		return rawFrame{}, fmt.Errorf("apng frame %d: %w", i, err)
	}

	dispose := f.dispose
	if i == 0 && dispose == apngDisposePrevious {
		dispose = apngDisposeBackground
	}
	if dispose == apngDisposePrevious {
		it.canvas.save()
	}
	r := image.Rect(f.x, f.y, f.x+f.width, f.y+f.height).Intersect(it.canvas.bounds())
	// The first frame always replaces the (transparent) canvas.
	it.canvas.paint(r, img, f.blend == apngBlendOver && i > 0)

	// A zero denominator means hundredths of a second.
	den := uint32(f.delayDen)
	if den == 0 {
		den = 100
	}
	out := it.canvas.emit(uint32(f.delayNum)*1000, den)

	switch dispose {
	case apngDisposeBackground:
		it.canvas.clear(r)
	case apngDisposePrevious:
		it.canvas.restore()
	}
	return out, nil
}

// standalone rebuilds a single-image PNG stream holding one animation frame.
func (it *apngFrames) standalone(f *apngFrame) []byte {
	var buf bytes.Buffer
	buf.WriteString(pngSignature)

	ihdr := make([]byte, len(it.ihdr))
	copy(ihdr, it.ihdr)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(f.width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(f.height))
	writePNGChunk(&buf, "IHDR", ihdr)

	for _, c := range it.shared {
		writePNGChunk(&buf, c.typ, c.data)
	}
	for _, d := range f.data {
		writePNGChunk(&buf, "IDAT", d)
	}
	writePNGChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writePNGChunk(w *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	w.Write(hdr[:])
	w.Write(data)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}
