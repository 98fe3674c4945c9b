package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rufus-willy/s-mmpbsa/pkg/result"
	"github.com/Rufus-willy/s-mmpbsa/pkg/writer/sqlite"
)

var systemName string

func init() {
	summarizeCmd.Flags().StringVar(&systemName, "name", "", "Only summarize runs of this system (default: all)")
	addReportFlags(summarizeCmd)
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [snapshot.db]",
	Short: "Regenerate reports from a result snapshot",
	Long: `Read the variants stored by 'run' and write their reports again, for
example with another residue selection or time point, without recomputing
any energy.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer log.Sync()

	runs, err := sqlite.ReadRuns(args[0])
	if err != nil {
		return err
	}

	// Variants grouped by system, in snapshot order.
	var order []string
	bySystem := make(map[string][]*result.Results)
	for _, run := range runs {
		if systemName != "" && run.System != systemName {
			continue
		}
		if _, ok := bySystem[run.System]; !ok {
			order = append(order, run.System)
		}
		bySystem[run.System] = append(bySystem[run.System], run.Results)
	}
	if len(order) == 0 {
		return fmt.Errorf("no runs found in %s", args[0])
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, name := range order {
		all := bySystem[name]
		fmt.Printf("System: %s (%d variant(s))\n", name, len(all))
		if err := writeReports(settings, log, name, all); err != nil {
			return err
		}

		var wt *result.Results
		var mutants []*result.Results
		for _, r := range all {
			if r.Label == "WT" && wt == nil {
				wt = r
			} else {
				mutants = append(mutants, r)
			}
		}
		printScan(settings, wt, mutants)
	}
	return nil
}
