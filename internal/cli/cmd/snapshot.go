package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matjam/glance/internal/cli/cmd/utils"
	"github.com/matjam/glance/internal/viewer"
)

func NewSnapshotCmd() *cobra.Command {
	var (
		out           string
		width, height int
	)
	c := &cobra.Command{
		Use:   "snapshot [image]",
		Short: "Render the fitted first frame of an image to a PNG file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			img, err := viewer.Snapshot(afero.NewOsFs(), utils.CanonicalPath(args[0]), width, height, ViewerConfig())
			if err != nil {
				log.Fatalf("Snapshot failed: %v", err)
			}
			if err := writePNG(out, img); err != nil {
				log.Fatalf("Snapshot failed: %v", err)
			}
			log.Infof("Wrote %s", out)
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "snapshot.png", "output PNG file")
	c.Flags().IntVar(&width, "width", 800, "window width")
	c.Flags().IntVar(&height, "height", 600, "window height")
	return c
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
