package decode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"

	// Formats understood by image.DecodeConfig and image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Pipeline reads image files from a filesystem and turns them into frames.
type Pipeline struct {
	fs afero.Fs
}

// NewPipeline returns a pipeline reading from fsys, or from the OS
// filesystem when fsys is nil.
func NewPipeline(fsys afero.Fs) *Pipeline {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Pipeline{fs: fsys}
}

// Image is a fully decoded file.
type Image struct {
	Path   string
	Info   Info
	Frames Sequence
}

// Probe reads path and sniffs its format, dimensions and orientation.
// No pixels are decoded.
func (p *Pipeline) Probe(path string) (*Handle, error) {
	st, err := p.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, loadError(KindNotFound, path, err)
		}
		return nil, loadError(KindUnreadable, path, err)
	}
	if !st.Mode().IsRegular() {
		return nil, loadError(KindUnreadable, path, fmt.Errorf("not a regular file: %s", st.Mode()))
	}
	data, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return nil, loadError(KindUnreadable, path, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// Animated WebP files are still described by their VP8X header.
		if wf := readWebPFeatures(data); wf.animated && wf.width > 0 && wf.height > 0 {
			cfg, format, err = image.Config{Width: wf.width, Height: wf.height}, string(FormatWebP), nil
		}
	}
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, loadError(KindUnrecognizedFormat, path, err)
		}
		return nil, loadError(KindDecodeFailed, path, err)
	}

	h := &Handle{path: path}
	h.info = Info{Format: Format(format), Width: cfg.Width, Height: cfg.Height, Orientation: OrientationNormal}
	switch Format(format) {
	case FormatGIF:
		h.src = &gifSource{data: data}
		h.info.Animated = true
	case FormatPNG:
		src := &pngSource{data: data, apng: isAPNG(data)}
		h.src = src
		h.info.Animated = src.apng
		h.info.Orientation = readOrientation(pngExif(data))
	case FormatWebP:
		src := &webpSource{data: data, features: readWebPFeatures(data)}
		h.src = src
		h.info.Animated = src.features.animated
		h.info.Orientation = readOrientation(src.features.exif)
	case FormatJPEG, FormatTIFF:
		h.src = &otherSource{data: data}
		h.info.Orientation = readOrientation(data)
	default:
		h.src = &otherSource{data: data}
	}
	return h, nil
}

// Load probes path and consumes the handle according to its capability.
// A lone frame from an animatable container is treated as a still.
func (p *Pipeline) Load(path string) (*Image, error) {
	h, err := p.Probe(path)
	if err != nil {
		return nil, err
	}
	info := h.Info()
	capability := Classify(h)
	log.Debugf("%s: %s %dx%d, orientation %d, %s", path, info.Format, info.Width, info.Height, info.Orientation, capability)

	var seq Sequence
	switch capability {
	case Animatable:
		seq, err = ExtractFrames(h)
		if err != nil {
			return nil, err
		}
		if len(seq) == 1 {
			seq[0].Duration = 0
		}
	default:
		f, err := DecodeStill(h)
		if err != nil {
			return nil, err
		}
		seq = Sequence{f}
	}
	return &Image{Path: path, Info: info, Frames: seq}, nil
}
