// Package config defines the options the log2file plugin recognizes and
// loads them through viper from config files, environment variables and
// defaults.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pipework/log2file/logctx"
)

// Options holds the log2file configuration for one run. Key names follow the
// host framework's flat plugin-option convention.
type Options struct {
	// Level is the main channel's severity threshold; the run log file
	// mirrors the console sink at this level.
	Level string `mapstructure:"level"`

	// Xqute enables routing of the executor logger to a per-task file.
	Xqute bool `mapstructure:"log2file_xqute"`

	// XquteLevel is the executor channel's severity threshold.
	XquteLevel string `mapstructure:"log2file_xqute_level"`

	// XquteAppend opens the per-task executor log in append mode instead of
	// truncating it on each run.
	XquteAppend bool `mapstructure:"log2file_xqute_append"`
}

// Default returns Options with the documented default values.
func Default() *Options {
	return &Options{
		Level:       "INFO",
		Xqute:       true,
		XquteLevel:  "INFO",
		XquteAppend: false,
	}
}

// Validate checks option values. Unknown level strings are tolerated by
// logctx.ParseLevel (they fall back to INFO), so there is nothing fatal to
// report today; the method exists so hosts can call it uniformly.
func (o *Options) Validate() []string {
	var errs []string
	for _, lvl := range []string{o.Level, o.XquteLevel} {
		if lvl == "" {
			errs = append(errs, "log level must not be empty")
		}
	}
	return errs
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("level", defaults.Level)
	viper.SetDefault("log2file_xqute", defaults.Xqute)
	viper.SetDefault("log2file_xqute_level", defaults.XquteLevel)
	viper.SetDefault("log2file_xqute_append", defaults.XquteAppend)
}

// Load reads the configuration from viper into an Options struct.
func Load() (*Options, error) {
	var opts Options
	if err := viper.Unmarshal(&opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Get returns the current configuration, falling back to defaults if
// unmarshaling fails.
func Get() *Options {
	opts, err := Load()
	if err != nil {
		return Default()
	}
	return opts
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "log2file")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".log2file"
	}
	return filepath.Join(home, ".config", "log2file")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidLevels returns the recognized log level strings.
func ValidLevels() []string {
	return logctx.ValidLevels()
}
