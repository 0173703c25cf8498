package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/glance/internal/ipc"
)

func NewNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the next image in the directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := ipc.Send(ipc.CommandNext); err != nil {
				log.Fatalf("Failed to send 'next' command: %v", err)
			}
			log.Info("Next image command sent")
		},
	}
}
