package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goregress/internal/config"
	"github.com/dbsmedya/goregress/internal/engine"
	"github.com/dbsmedya/goregress/internal/regress"
)

var (
	planTest     string
	planEstimate bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the SQL a run would execute",
	Long: `Plan resolves both relations of a test and prints the compared, skipped
and ignored columns together with every statement a run would issue.
No comparison statement is executed.

With --estimate each relation is counted once.

Example:
  goregress plan --config goregress.yaml --test orders_v2
  goregress plan --config goregress.yaml --test orders_v2 --estimate`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planTest, "test", "t", "",
		"Test name from configuration file (required)")
	planCmd.MarkFlagRequired("test")

	planCmd.Flags().BoolVar(&planEstimate, "estimate", false,
		"Count the rows of both relations")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	test, err := cfg.GetTest(planTest)
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

	cmp := effectiveCompare(cfg, planTest)
	runner, err := regress.NewRunner(sess, planTest, test, cmp)
	if err != nil {
		return err
	}

	res, err := runner.Plan(ctx, planEstimate)
	if err != nil {
		return err
	}

	printPlan(res, cfg.Engine.Driver, cmp)
	return nil
}

func printPlan(res *regress.PlanResult, driver string, cmp config.CompareConfig) {
	printHeader("Regression Plan: %s", res.TestName)
	fmt.Fprintf(outputWriter, "Engine:      %s\n", driver)
	fmt.Fprintf(outputWriter, "Old:         %s%s\n", res.Pair.Old().String(), rowEstimate(res.RowsOld))
	fmt.Fprintf(outputWriter, "New:         %s%s\n", res.Pair.New().String(), rowEstimate(res.RowsNew))
	fmt.Fprintf(outputWriter, "Primary Key: %s\n", strings.Join(res.Pair.PKColumns(), ", "))
	fmt.Fprintln(outputWriter)

	printSection("Compare Settings")
	fmt.Fprintf(outputWriter, "  Sample size:        %d\n", cmp.SampleSize)
	fmt.Fprintf(outputWriter, "  Rounding precision: %d\n", cmp.Precision())
	fmt.Fprintf(outputWriter, "  Float tolerance:    %g\n", cmp.FloatTolerance)
	fmt.Fprintf(outputWriter, "  Null-safe keys:     %v\n", cmp.NullSafe())
	fmt.Fprintf(outputWriter, "  Fail on missing:    %v\n", cmp.FailOnMissingRows)
	fmt.Fprintln(outputWriter)

	printSection("Columns")
	for i, col := range res.Plan.Columns {
		note := ""
		if col.Mismatched() {
			note = fmt.Sprintf(" (type mismatch: %s vs %s)", col.OldType, col.NewType)
		}
		fmt.Fprintf(outputWriter, "  %d. %s [%s]%s\n", i+1, col.Name, col.Type(), note)
	}
	for _, skip := range res.Plan.Skipped {
		fmt.Fprintf(outputWriter, "  - %s skipped: %s\n", skip.Column, skip.Error())
	}
	for _, name := range res.Plan.Ignored {
		fmt.Fprintf(outputWriter, "  - %s ignored\n", name)
	}
	drift := res.Pair.Drift()
	if len(drift.OldOnly) > 0 {
		fmt.Fprintf(outputWriter, "  Only in old: %s\n", strings.Join(drift.OldOnly, ", "))
	}
	if len(drift.NewOnly) > 0 {
		fmt.Fprintf(outputWriter, "  Only in new: %s\n", strings.Join(drift.NewOnly, ", "))
	}
	fmt.Fprintln(outputWriter)

	printSection("Statements")
	for i, st := range res.Statements {
		fmt.Fprintf(outputWriter, "-- %d. %s: %s\n", i+1, st.Stage, st.Name)
		fmt.Fprintf(outputWriter, "%s;\n\n", st.SQL)
	}

	fmt.Fprintln(outputWriter, "No comparison statement was executed. Use 'run' to execute.")
}

func rowEstimate(n int64) string {
	if n < 0 {
		return ""
	}
	return fmt.Sprintf(" (~%d rows)", n)
}
