package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("glance")
		viper.SetConfigType("toml")
		if viper.GetString("config") != "" {
			viper.SetConfigFile(viper.GetString("config"))
		} else {
			viper.AddConfigPath("$HOME/.config/glance")
			viper.AddConfigPath("/etc/xdg/glance")
		}
	}

	SetDefaults()

	viper.SetEnvPrefix("glance")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // GLANCE_VIEW_PAN_STEP and friends

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Debug("no config file found, using defaults")
		return
	}
	cobra.CheckErr(err)
}

func SetDefaults() {
	viper.SetDefault("debug", false)
	viper.SetDefault("fullscreen", false)
	viper.SetDefault("exit_on_click", true)
	viper.SetDefault("socket", true)
	viper.SetDefault("window.width", 0)
	viper.SetDefault("window.height", 0)
	viper.SetDefault("view.pan_step", 40.0)
	viper.SetDefault("view.shadow", true)
	viper.SetDefault("animation.min_frame_delay", "10ms")
}
