package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/regress"
	"github.com/dbsmedya/goregress/internal/report"
)

var (
	runTest   string
	runFormat string
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run regression tests and report differences",
	Long: `Run compares the old and new relation of each test, aligned on the
primary key, and prints a summary report.

The run steps are:
  1. Resolve both relations and check the primary key on both sides
  2. Align keys (matched, old-only, new-only, duplicated)
  3. Compare every shared column and classify each difference
  4. Group differences by column and category with bounded samples

The command exits non-zero when any test's verdict is FAILURE.

Example:
  goregress run --config goregress.yaml
  goregress run --config goregress.yaml --test orders_v2 --output orders.json`,
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runTest, "test", "t", "",
		"Test name from configuration file (default: all tests)")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "text",
		"Report format on stdout (text, json, yaml)")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "",
		"Also write each report to this file (.json, .yaml or .yml); with several tests the test name is appended")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := checkFormat(runFormat); err != nil {
		return err
	}
	if runOutput != "" {
		if _, err := fileFormat(runOutput); err != nil {
			return err
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	names, err := selectTests(cfg, runTest)
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

	var failed []string
	for _, name := range names {
		test, err := cfg.GetTest(name)
		if err != nil {
			return err
		}

		runner, err := regress.NewRunner(sess, name, test, effectiveCompare(cfg, name))
		if err != nil {
			return fmt.Errorf("failed to create runner for %q: %w", name, err)
		}

		rep, err := runner.Run(ctx)
		if err != nil {
			return fmt.Errorf("test %q failed to run: %w", name, err)
		}

		if err := writeReport(rep, runFormat); err != nil {
			return err
		}
		if runOutput != "" {
			path := outputPath(runOutput, name, len(names) > 1)
			if err := saveReport(rep, path); err != nil {
				return err
			}
			log.Infow("Report written", "test", name, "path", path)
		}

		if !rep.Passed() {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d test(s) failed: %s", len(failed), len(names), strings.Join(failed, ", "))
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
	}
}

// fileFormat derives the report format from a file extension.
func fileFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("cannot infer report format from %q (use .json, .yaml or .yml)", path)
	}
}

// outputPath appends the test name before the extension when several
// reports share one --output value.
func outputPath(path, testName string, multiple bool) string {
	if !multiple {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + testName + ext
}

func writeReport(rep *report.SummaryReport, format string) error {
	switch format {
	case "json":
		return rep.WriteJSON(outputWriter)
	case "yaml":
		return rep.WriteYAML(outputWriter)
	default:
		if err := rep.WriteText(outputWriter, report.TextOptions{Color: !GetCLIOverrides().NoColor}); err != nil {
			return err
		}
		fmt.Fprintln(outputWriter)
		return nil
	}
}

func saveReport(rep *report.SummaryReport, path string) (err error) {
	format, err := fileFormat(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", cerr)
		}
	}()

	if format == "json" {
		return rep.WriteJSON(f)
	}
	return rep.WriteYAML(f)
}
