package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/goregress/internal/config"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/logger"
)

// outputWriter is the writer for command output (can be overridden for testing)
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer for testing
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets the output writer to stdout
func resetOutputWriter() {
	outputWriter = os.Stdout
}

// printHeader prints a formatted header
func printHeader(format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
	fmt.Fprintf(outputWriter, "  %s\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(title string) {
	fmt.Fprintf(outputWriter, "[%s]\n", title)
	fmt.Fprintln(outputWriter, strings.Repeat("-", runewidth.StringWidth(title)+2))
}

// loadConfig loads and validates the config file with CLI overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.SampleSize, overrides.Precision, overrides.Tolerance)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectTests returns the requested test, or every test in name order.
func selectTests(cfg *config.Config, name string) ([]string, error) {
	if name == "" {
		return cfg.ListTests(), nil
	}
	if _, err := cfg.GetTest(name); err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// effectiveCompare resolves a test's compare config including CLI overrides.
func effectiveCompare(cfg *config.Config, name string) config.CompareConfig {
	overrides := GetCLIOverrides()
	return cfg.ApplyTestOverrides(name, overrides.SampleSize, overrides.Precision, overrides.Tolerance)
}

// openLogger builds the command's logger. Callers Close it.
func openLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// openSession connects to the engine. ctx should already carry the shutdown
// handler so that an interrupt stops the connect retries.
func openSession(ctx context.Context, cfg *config.Config, log *logger.Logger) (*engine.Session, error) {
	sess, err := engine.Open(ctx, &cfg.Engine, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine: %w", err)
	}
	return sess, nil
}
