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
	cfgFile    string
	logLevel   string
	logFormat  string
	sampleSize int
	precision  int
	tolerance  float64
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "goregress",
	Short: "Relational regression testing for SQL engines",
	Long: `A CLI tool that compares two versions of a relation (a table or a query)
aligned on a primary key and reports every value-level difference,
classified by kind.

Features:
  - Key alignment with duplicate and missing-row detection
  - Per-column comparison pushed down to MySQL or PostgreSQL
  - Difference classification (nulls, capitalization, whitespace, rounding, sign)
  - Grouped counts with bounded samples per group
  - Text, JSON and YAML reports`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "goregress.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Compare overrides
	rootCmd.PersistentFlags().IntVar(&sampleSize, "sample-size", 0,
		"Override number of samples kept per diff group")
	rootCmd.PersistentFlags().IntVar(&precision, "precision", -1,
		"Override rounding precision (decimal places) of the rounding category")
	rootCmd.PersistentFlags().Float64Var(&tolerance, "tolerance", 0,
		"Override absolute tolerance for floating point equality")

	// Output
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colored text output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel   string
	LogFormat  string
	SampleSize int
	Precision  int
	Tolerance  float64
	NoColor    bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		SampleSize: sampleSize,
		Precision:  precision,
		Tolerance:  tolerance,
		NoColor:    noColor,
	}
}
