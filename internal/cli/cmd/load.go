package cmd

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/glance/internal/cli/cmd/utils"
	"github.com/matjam/glance/internal/ipc"
)

func NewLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [image]",
		Short: "Open an image in the running viewer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path, err := filepath.Abs(utils.CanonicalPath(args[0]))
			if err != nil {
				log.Fatalf("Invalid path %s: %v", args[0], err)
			}
			if err := ipc.SendLoad(path); err != nil {
				log.Fatalf("Failed to send 'load' command: %v", err)
			}
			log.Infof("Loading %s", path)
		},
	}
}
