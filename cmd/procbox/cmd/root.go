package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/procbox/pkg/logging"
)

var (
	cfgFile  string
	logLevel string
	logFile  string
	logJSON  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "procbox",
	Short: "Bounded subprocess execution harness",
	Long: `procbox runs registered units of work in isolated child processes with a
wall-clock deadline, relaying results, failures and log output back to the
parent. Runs can be composed with constant-backoff retries.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.procbox/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also append logs to this file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON lines")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".procbox"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("procbox")
	viper.AutomaticEnv()

	viper.SetDefault("default_ttl_seconds", 60)
	viper.SetDefault("default_isolation", "inherit")
	viper.SetDefault("log_level", "info")

	// Missing config file is fine; defaults and env cover it.
	_ = viper.ReadInConfig()
}

// newLogger builds the parent-side logger from flags and config.
func newLogger() (*logging.Logger, error) {
	level := logLevel
	if level == "" {
		level = viper.GetString("log_level")
	}
	if logFile != "" {
		return logging.NewFileLogger(logFile, logging.ParseLevel(level), logJSON)
	}
	return logging.NewLogger(logging.ParseLevel(level), logJSON), nil
}
