package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dustat/dustat/pkg/dustat/config"
	"github.com/dustat/dustat/pkg/dustat/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "dustat",
		Short: "Filesystem metadata scanner and rollup pipeline",
		Long: `Dustat scans very large directory trees into a per-entry metadata CSV
and reduces that CSV into per-(folder, user, age) capacity rollups.

Examples:
  dustat scan /srv/data                  # Scan into srv-data.csv
  dustat scan -t 32 --skip .snapshot /srv
  dustat agg srv-data.csv                # Reduce into srv-data.agg.csv
  dustat version`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dustat/config.yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output, no progress reporting")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (default: XDG state dir)")

	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "dustat"))
		if homeDir, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "dustat"))
		}
	}

	viper.SetEnvPrefix("DUSTAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("threads", config.DefaultWorkers())
	viper.SetDefault("batch", config.DefaultBatch)
	viper.SetDefault("flush_bytes", "8MiB")
	viper.SetDefault("log_level", "info")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// setupLogging initializes the logging system for every subcommand.
func setupLogging(_ *cobra.Command, _ []string) error {
	level := viper.GetString("log_level")
	if getVerbose() {
		level = "debug"
	}
	consoleLevel := "info"
	if getQuiet() {
		consoleLevel = "error"
	}

	return logging.Init(logging.Config{
		Level:        level,
		Path:         viper.GetString("log_file"),
		ConsoleLevel: consoleLevel,
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message unless quiet mode is enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}
