package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/glance/internal/ipc"
)

func NewPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause or resume animation playback",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := ipc.Send(ipc.CommandPause); err != nil {
				log.Fatalf("Failed to send 'pause' command: %v", err)
			}
			log.Info("Pause command sent")
		},
	}
}
