package viewer

import (
	"context"
	"fmt"
	"image"

	"github.com/spf13/afero"

	"github.com/matjam/glance/internal/softrender"
)

// Snapshot shows path in a width x height software window the way the
// viewer would on open and returns the drawn frame.
func Snapshot(fsys afero.Fs, path string, width, height int, cfg Config) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid snapshot size %dx%d", width, height)
	}
	display := softrender.NewHeadless(width, height)
	session := New(display, fsys, nil, cfg)
	defer session.Close()

	if err := session.Open(path); err != nil {
		return nil, err
	}
	if err := session.Run(context.Background()); err != nil {
		return nil, err
	}
	return display.Image(), nil
}
