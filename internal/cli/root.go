/*
Copyright © 2025 Nathan Ollerenshaw <chrome@stupendous.net>
*/
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matjam/glance"
	"github.com/matjam/glance/internal/cli/cmd"
	"github.com/matjam/glance/internal/cli/cmd/utils"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "glance [image]",
	Short: "A fast keyboard and mouse driven image viewer",
	Long: `glance shows a still or animated image in a window with zoom, pan,
rotation, mirroring and fullscreen, and steps through the other files in
its directory with PgUp/PgDn.

A running viewer can be controlled with the next, prev, pause, load, quit
and status subcommands.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(c *cobra.Command, args []string) {
		if viper.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		}
	},
	Run: func(c *cobra.Command, args []string) {
		if v, err := c.Flags().GetBool("show-config"); err == nil && v {
			allSettings := viper.AllSettings()

			log.Infof("Using config file: %v", viper.ConfigFileUsed())
			log.Infof("All settings:")
			utils.PrintJSONColored(allSettings)
			return
		}

		babyBlue := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
		yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
		green := lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
		if v, err := c.Flags().GetBool("version"); err == nil && v {
			log.Infof("%v version %v © 2025 %v",
				babyBlue.Render("glance "),
				green.Render(strings.Trim(glance.Version, "\n\r ")),
				yellow.Render("Nathan Ollerenshaw"))
			return
		}

		if v, err := c.Flags().GetBool("installconfig"); err == nil && v {
			utils.InstallDefaultConfig()
			return
		}

		if len(args) == 0 {
			_ = c.Help()
			return
		}

		path, err := filepath.Abs(utils.CanonicalPath(args[0]))
		if err != nil {
			log.Fatalf("Invalid path %s: %v", args[0], err)
		}

		if v, err := c.Flags().GetBool("background"); err == nil && v {
			if cmd.Daemonize() {
				return
			}
		}

		cmd.StartViewer(path)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	RegisterFlags(rootCmd)

	rootCmd.AddCommand(
		cmd.NewNextCmd(),
		cmd.NewPrevCmd(),
		cmd.NewPauseCmd(),
		cmd.NewQuitCmd(),
		cmd.NewLoadCmd(),
		cmd.NewStatusCmd(),
		cmd.NewSnapshotCmd(),
		cmd.NewGenManCmd(rootCmd),
	)
}
