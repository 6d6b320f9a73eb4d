// ABOUTME: Application configuration loaded through viper
// ABOUTME: Defaults work out of the box; a config file overrides them
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the runtime settings for the playback stack.
type Config struct {
	SampleRate    int    `mapstructure:"sampleRate"`
	Channels      int    `mapstructure:"channels"`
	AudioBufferMS int    `mapstructure:"audioBufferMs"`
	StorePath     string `mapstructure:"storePath"`
	LogLevel      string `mapstructure:"logLevel"`
}

// Load reads config.yml from the user config directory or the current
// directory, falling back to defaults when no file exists.
func Load() (Config, error) {
	v := viper.New()

	if configDir, err := os.UserConfigDir(); err == nil {
		appDir := filepath.Join(configDir, "krono")
		if err := os.MkdirAll(appDir, 0o755); err != nil {
			logrus.Warnf("could not create config directory %s: %v", appDir, err)
		} else {
			v.AddConfigPath(appDir)
		}
	} else {
		logrus.Warnf("no user config directory, using current directory: %v", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	v.SetDefault("sampleRate", 48000)
	v.SetDefault("channels", 2)
	v.SetDefault("audioBufferMs", 100)
	v.SetDefault("storePath", "krono.db")
	v.SetDefault("logLevel", "info")

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
