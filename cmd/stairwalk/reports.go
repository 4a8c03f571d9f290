package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/stairwalk/internal/platform/tui"
	"github.com/vovakirdan/stairwalk/internal/storage"
)

var (
	flagInteractive bool
	flagLimit       int
)

var reportsCmd = &cobra.Command{
	Use:   "reports [run-id]",
	Short: "Show stored timing reports",
	Long: `List the most recent runs stored by 'stairwalk run' and 'stairwalk serve',
or print the per-process timings of one run.

Examples:
  stairwalk reports
  stairwalk reports 3f6c1d2e-...
  stairwalk reports -i          # browse interactively`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReports,
}

func init() {
	reportsCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Browse reports in a terminal UI")
	reportsCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of runs to list")
}

func runReports(_ *cobra.Command, args []string) error {
	// Open report storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if flagInteractive {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunReports(store, width, height)
	}

	if len(args) == 1 {
		return printTimings(store, args[0])
	}

	reports, err := store.RecentReports(flagLimit)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Run 'stairwalk run' to store the first report.")
		return nil
	}

	// Print header
	fmt.Printf("  %-36s  %-16s  %-8s  %-8s  %-6s  %-10s  %s\n", "Run", "Date", "Seed", "Ticks", "Dt", "Infeasible", "Solves")
	fmt.Printf("  %-36s  %-16s  %-8s  %-8s  %-6s  %-10s  %s\n", "---", "----", "----", "-----", "--", "----------", "------")

	for _, r := range reports {
		fmt.Printf("  %-36s  %-16s  %-8d  %-8d  %-6s  %-10d  %d\n",
			r.RunID, r.CreatedAt.Format("2006-01-02 15:04"), r.Seed, r.Ticks, r.Dt, r.InfeasibleTicks, r.Solves)
	}

	// Show aggregate timings
	stats, err := store.AllProcessStats()
	if err == nil && len(stats) > 0 {
		fmt.Println()
		fmt.Println("Averages over all runs:")
		for _, name := range sortedKeys(stats) {
			s := stats[name]
			fmt.Printf("  %-20s  %3d runs  %10s  %d failures\n", name, s.Runs, s.Average, s.Failures)
		}
	}
	return nil
}

func printTimings(store *storage.Store, runID string) error {
	timings, err := store.ReportTimings(runID)
	if err != nil {
		return err
	}
	if len(timings) == 0 {
		return fmt.Errorf("no timings stored for run %q", runID)
	}

	fmt.Printf("Process timings - run %s\n", runID)
	fmt.Println()
	fmt.Printf("  %-20s  %-5s  %8s  %8s  %12s\n", "Process", "Group", "Calls", "Failures", "Average")
	for _, t := range timings {
		fmt.Printf("  %-20s  %-5s  %8d  %8d  %12s\n", t.Name, t.Group, t.Calls, t.Failures, t.Average)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
