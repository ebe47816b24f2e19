package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goregress/internal/config"
)

var listTestsCmd = &cobra.Command{
	Use:   "list-tests",
	Short: "List all tests defined in configuration",
	Long: `List-tests displays all regression tests defined in the configuration
file along with their relations and compare settings.

Example:
  goregress list-tests --config goregress.yaml`,
	RunE: runListTests,
}

func init() {
	rootCmd.AddCommand(listTestsCmd)
}

func runListTests(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	testNames := cfg.ListTests()

	if len(testNames) == 0 {
		cmd.Printf("No tests defined in %s\n", configFile)
		return nil
	}

	cmd.Printf("Tests defined in %s:\n\n", configFile)

	for i, name := range testNames {
		test, err := cfg.GetTest(name)
		if err != nil {
			return fmt.Errorf("failed to get test %q: %w", name, err)
		}

		cmd.Printf("%d. %s\n", i+1, name)
		cmd.Printf("   Old:           %s\n", describeRelation(test.Old))
		cmd.Printf("   New:           %s\n", describeRelation(test.New))
		cmd.Printf("   Primary Key:   %s\n", strings.Join(test.PrimaryKey, ", "))

		if len(test.IgnoreColumns) > 0 {
			cmd.Printf("   Ignored:       %s\n", strings.Join(test.IgnoreColumns, ", "))
		}

		// Test-specific compare config
		if test.Compare != nil {
			cmp := test.GetTestCompare(cfg.Compare)
			cmd.Printf("   Compare:       Custom (sample_size=%d, rounding_precision=%d, null_safe_keys=%v)\n",
				cmp.SampleSize, cmp.Precision(), cmp.NullSafe())
		}

		if i < len(testNames)-1 {
			cmd.Println()
		}
	}

	cmd.Printf("\nTotal: %d test(s)\n", len(testNames))
	return nil
}

func describeRelation(rc config.RelationConfig) string {
	if rc.Query != "" {
		return "query: " + strings.Join(strings.Fields(rc.Query), " ")
	}
	return "table: " + rc.Table
}
