package viewer

import (
	"errors"
	"image/color"
	"testing"

	"github.com/matjam/glance/internal/decode"
)

func TestSnapshot(t *testing.T) {
	fsys := newFs(t, file{"/in/wide.png", pngBytes(t, solid(40, 20, green)), 0})

	img, err := Snapshot(fsys, "/in/wide.png", 200, 200, DefaultConfig())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("snapshot size %v", b)
	}
	// 40x20 fits 200 wide at level 4 (x4): a 160x80 band centered vertically.
	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{100, 100, green},
		{21, 61, green},
		{100, 10, color.NRGBA{}},
	}
	for _, tt := range tests {
		if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSnapshotErrors(t *testing.T) {
	fsys := newFs(t)
	if _, err := Snapshot(fsys, "/in/missing.png", 10, 10, DefaultConfig()); !errors.Is(err, decode.ErrNotFound) {
		t.Fatalf("Snapshot(missing) = %v, want ErrNotFound", err)
	}
	if _, err := Snapshot(fsys, "/in/missing.png", 0, 10, DefaultConfig()); err == nil {
		t.Fatal("Snapshot with zero width succeeded")
	}
}
