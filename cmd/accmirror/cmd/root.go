package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile         string
	logLevel        string
	logFormat       string
	intervalSeconds int
	skipVerify      bool
)

var rootCmd = &cobra.Command{
	Use:   "accmirror",
	Short: "Access to PostgreSQL continuous mirror",
	Long: `A continuous one-way mirror from a legacy Microsoft Access database
into PostgreSQL.

Each pass snapshots every source table, diffs it against the previous
snapshot, and applies only the changed rows as upserts and deletes.
Destination tables are created on first sight with normalized column
names and the first column as primary key.`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "accmirror.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Sync overrides
	rootCmd.PersistentFlags().IntVar(&intervalSeconds, "interval", 0,
		"Override sync interval in seconds")
	rootCmd.PersistentFlags().BoolVar(&skipVerify, "skip-verify", false,
		"Skip row count verification after each table")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel        string
	LogFormat       string
	IntervalSeconds int
	SkipVerify      bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		IntervalSeconds: intervalSeconds,
		SkipVerify:      skipVerify,
	}
}
