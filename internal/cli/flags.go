package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func RegisterFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/glance/glance.toml)")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.Flags().BoolP("fullscreen", "f", false, "Start in fullscreen")
	viper.BindPFlag("fullscreen", rootCmd.Flags().Lookup("fullscreen"))

	rootCmd.Flags().BoolP("installconfig", "i", false, "Install a default config file")
	rootCmd.Flags().Bool("show-config", false, "Dump resolved config")
	rootCmd.Flags().BoolP("background", "b", false, "Detach from the terminal")
	rootCmd.Flags().BoolP("version", "v", false, "Print version")
	rootCmd.PersistentFlags().BoolP("help", "h", false, "Print usage")
}
