package decode

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func pixelAt(f Frame, x, y int) color.NRGBA {
	i := (y*f.Width + x) * 4
	return color.NRGBA{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2], A: f.Pix[i+3]}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeBMP(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeTIFF(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatalf("tiff.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, g *gif.GIF) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		t.Fatalf("gif.EncodeAll: %v", err)
	}
	return buf.Bytes()
}

type apngTestFrame struct {
	img            *image.NRGBA
	x, y           int
	num, den       uint16
	dispose, blend byte
	// corrupt replaces the frame's image data with garbage.
	corrupt bool
}

// encodeAPNG assembles an animated PNG from opaque frames so every frame
// shares the RGB8 colour type of the first.
func encodeAPNG(t *testing.T, w, h int, frames []apngTestFrame) []byte {
	t.Helper()
	var out bytes.Buffer
	out.WriteString(pngSignature)
	var seq uint32
	for i, f := range frames {
		chunks, err := readPNGChunks(encodePNG(t, f.img))
		if err != nil {
			t.Fatalf("readPNGChunks: %v", err)
		}
		if i == 0 {
			ihdr := append([]byte(nil), chunks[0].data...)
			binary.BigEndian.PutUint32(ihdr[0:4], uint32(w))
			binary.BigEndian.PutUint32(ihdr[4:8], uint32(h))
			writePNGChunk(&out, "IHDR", ihdr)
			actl := make([]byte, 8)
			binary.BigEndian.PutUint32(actl[0:4], uint32(len(frames)))
			writePNGChunk(&out, "acTL", actl)
		}

		fctl := make([]byte, 26)
		b := f.img.Bounds()
		binary.BigEndian.PutUint32(fctl[0:4], seq)
		binary.BigEndian.PutUint32(fctl[4:8], uint32(b.Dx()))
		binary.BigEndian.PutUint32(fctl[8:12], uint32(b.Dy()))
		binary.BigEndian.PutUint32(fctl[12:16], uint32(f.x))
		binary.BigEndian.PutUint32(fctl[16:20], uint32(f.y))
		binary.BigEndian.PutUint16(fctl[20:22], f.num)
		binary.BigEndian.PutUint16(fctl[22:24], f.den)
		fctl[24], fctl[25] = f.dispose, f.blend
		writePNGChunk(&out, "fcTL", fctl)
		seq++

		for _, c := range chunks {
			if c.typ != "IDAT" {
				continue
			}
			data := c.data
			if f.corrupt {
				data = []byte("not a zlib stream")
			}
			if i == 0 {
				writePNGChunk(&out, "IDAT", data)
				continue
			}
			fdat := make([]byte, 4, 4+len(data))
			binary.BigEndian.PutUint32(fdat, seq)
			writePNGChunk(&out, "fdAT", append(fdat, data...))
			seq++
		}
	}
	writePNGChunk(&out, "IEND", nil)
	return out.Bytes()
}

// withPNGChunk inserts a chunk right after IHDR.
func withPNGChunk(t *testing.T, data []byte, typ string, payload []byte) []byte {
	t.Helper()
	chunks, err := readPNGChunks(data)
	if err != nil {
		t.Fatalf("readPNGChunks: %v", err)
	}
	var out bytes.Buffer
	out.WriteString(pngSignature)
	for i, c := range chunks {
		writePNGChunk(&out, c.typ, c.data)
		if i == 0 {
			writePNGChunk(&out, typ, payload)
		}
	}
	return out.Bytes()
}

// tiffOrientation builds a minimal little-endian TIFF header holding only
// an orientation tag.
func tiffOrientation(v uint16) []byte {
	b := make([]byte, 26)
	copy(b, "II*\x00")
	binary.LittleEndian.PutUint32(b[4:8], 8)
	binary.LittleEndian.PutUint16(b[8:10], 1)
	binary.LittleEndian.PutUint16(b[10:12], 0x0112)
	binary.LittleEndian.PutUint16(b[12:14], 3)
	binary.LittleEndian.PutUint32(b[14:18], 1)
	binary.LittleEndian.PutUint16(b[18:20], v)
	// next IFD offset stays zero
	return b
}

type webpTestFrame struct {
	x, y, w, h int
	duration   int
	flags      byte
	c          color.NRGBA
}

// encodeWebP builds a RIFF container. Frame bitstreams are fake VP8L
// chunks carrying (w, h, r, g, b, a), understood by fakeWebPDecoder.
func encodeWebP(w, h int, animated bool, frames []webpTestFrame) []byte {
	var body bytes.Buffer
	var vp8x [10]byte
	if animated {
		vp8x[0] = vp8xAnimation
	}
	putUint24(vp8x[4:7], w-1)
	putUint24(vp8x[7:10], h-1)
	writeRIFFChunk(&body, "VP8X", vp8x[:])
	if animated {
		writeRIFFChunk(&body, "ANIM", make([]byte, 6))
	}
	for _, f := range frames {
		var hdr [16]byte
		putUint24(hdr[0:3], f.x/2)
		putUint24(hdr[3:6], f.y/2)
		putUint24(hdr[6:9], f.w-1)
		putUint24(hdr[9:12], f.h-1)
		putUint24(hdr[12:15], f.duration)
		hdr[15] = f.flags
		var anmf bytes.Buffer
		anmf.Write(hdr[:])
		writeRIFFChunk(&anmf, "VP8L", []byte{byte(f.w), byte(f.h), f.c.R, f.c.G, f.c.B, f.c.A})
		writeRIFFChunk(&body, "ANMF", anmf.Bytes())
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

func fakeWebPDecoder(b []byte) (image.Image, error) {
	chunks, err := readRIFFChunks(b, false)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.fourcc == "VP8L" && len(c.data) == 6 {
			d := c.data
			return solid(int(d[0]), int(d[1]), color.NRGBA{R: d[2], G: d[3], B: d[4], A: d[5]}), nil
		}
	}
	return nil, errWebPStructure
}

func useFakeWebPDecoder(t *testing.T) {
	t.Helper()
	prev := webpFrameDecoder
	webpFrameDecoder = fakeWebPDecoder
	t.Cleanup(func() { webpFrameDecoder = prev })
}

func memPipeline(t *testing.T, files map[string][]byte) *Pipeline {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, data := range files {
		if err := afero.WriteFile(fsys, name, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return NewPipeline(fsys)
}
