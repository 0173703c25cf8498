package decode

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is the EXIF orientation tag, 1 through 8.
type Orientation uint8

const OrientationNormal Orientation = 1

// Transform returns the clockwise quarter turns and mirror flag that display
// an image with this orientation upright. Unknown values map to (0, false).
func (o Orientation) Transform() (quarterTurns int, mirror bool) {
	switch o {
	case 2:
		return 0, true
	case 3:
		return 2, false
	case 4:
		return 2, true
	case 5:
		return 1, true
	case 6:
		return 1, false
	case 7:
		return 3, true
	case 8:
		return 3, false
	default:
		return 0, false
	}
}

var exifHeader = []byte("Exif\x00\x00")

// readOrientation parses an EXIF block (JPEG stream, TIFF stream or bare
// TIFF-structured payload). Anything unparseable is OrientationNormal.
func readOrientation(data []byte) Orientation {
	if len(data) == 0 {
		return OrientationNormal
	}
	data = bytes.TrimPrefix(data, exifHeader)
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return OrientationNormal
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return OrientationNormal
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return OrientationNormal
	}
	return Orientation(v)
}
