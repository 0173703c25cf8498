package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matjam/glance/internal/ipc"
)

func NewQuitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quit",
		Short: "Close the running viewer",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := ipc.Send(ipc.CommandQuit); err != nil {
				log.Fatalf("Failed to send 'quit' command: %v", err)
			}
			log.Info("Quit command sent")
		},
	}
}
