// Package cmd implements the log2file command line interface: inspection
// tools over the run log files the plugin produces.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pipework/log2file/config"
)

var rootCmd = &cobra.Command{
	Use:   "log2file",
	Short: "Inspect pipeline run logs",
	Long: `log2file routes pipeline run logs to per-run files on disk.
This tool inspects those files: listing, filtering, exporting and
following the latest run's log.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/log2file/config.yaml)")
	rootCmd.PersistentFlags().StringP("workdir", "w", ".", "pipeline working directory")
	rootCmd.PersistentFlags().StringP("pipeline", "p", "", "pipeline name")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))
	_ = viper.BindPFlag("pipeline", rootCmd.PersistentFlags().Lookup("pipeline"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/log2file")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOG2FILE")
	// Replace dots with underscores for nested keys in env vars
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
