package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/regress"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and relation schemas",
	Long: `Validate checks the configuration file, connects to the engine and
resolves both relations of every test without comparing any data.

Checks performed:
  - Configuration syntax and required fields
  - Engine connectivity
  - Existence of every table and validity of every query
  - Primary key columns present on both sides with compatible types

Example:
  goregress validate --config goregress.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, cancel := engine.WithShutdown(context.Background(), log)
	defer cancel()

	sess, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Ping(ctx); err != nil {
		return fmt.Errorf("engine connection failed: %w", err)
	}

	printHeader("Configuration Validation")
	fmt.Fprintf(outputWriter, "Config file: %s\n", GetConfigFile())
	fmt.Fprintf(outputWriter, "Tests found: %d\n\n", len(cfg.Tests))

	hasErrors := false
	for _, name := range cfg.ListTests() {
		test, err := cfg.GetTest(name)
		if err != nil {
			return err
		}
		printSection(name)

		runner, err := regress.NewRunner(sess, name, test, effectiveCompare(cfg, name))
		if err != nil {
			return err
		}

		pair, err := runner.Prepare(ctx)
		if err != nil {
			fmt.Fprintf(outputWriter, "FAIL %v\n\n", err)
			hasErrors = true
			continue
		}

		fmt.Fprintf(outputWriter, "Old: %s (%d columns)\n", pair.Old().String(), len(pair.Old().Columns))
		fmt.Fprintf(outputWriter, "New: %s (%d columns)\n", pair.New().String(), len(pair.New().Columns))
		fmt.Fprintf(outputWriter, "Shared non-key columns: %d\n", len(pair.SharedColumns()))
		if drift := pair.Drift(); !drift.Empty() {
			fmt.Fprintf(outputWriter, "Schema drift: %d old-only, %d new-only column(s)\n", len(drift.OldOnly), len(drift.NewOnly))
		}
		fmt.Fprintf(outputWriter, "OK\n\n")
	}

	if hasErrors {
		return fmt.Errorf("validation failed for one or more tests")
	}

	fmt.Fprintln(outputWriter, "All tests validated successfully")
	return nil
}
