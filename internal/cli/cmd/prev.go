package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/glance/internal/ipc"
)

func NewPrevCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Show the previous image in the directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := ipc.Send(ipc.CommandPrev); err != nil {
				log.Fatalf("Failed to send 'prev' command: %v", err)
			}
			log.Info("Previous image command sent")
		},
	}
}
