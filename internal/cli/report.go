package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

var (
	reportFormat string
	reportGantt  bool
	reportWeek   bool
	reportDate   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Weekly balance report or Gantt chart",
	Long: `Report this week's realized bucket shares against the targets, the
breakdown of logged work by original bucket, and how much of the planned work
was done.

With --gantt, print a Mermaid Gantt chart of a day's plan instead, or of
every plan of the week with --week.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reporter == nil {
			return fmt.Errorf("reporter not initialized")
		}

		if reportGantt {
			var chart string
			var err error
			if reportWeek {
				chart, err = Reporter.WeekGantt()
			} else {
				date := reportDate
				if date == "" {
					date = today()
				}
				chart, err = Reporter.DailyGantt(date)
			}
			if err != nil {
				return err
			}
			fmt.Println(chart)
			return nil
		}

		report, err := Reporter.WeeklyReport()
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				fmt.Println("No weekly state yet. Log some work or generate a plan first.")
				return nil
			}
			return err
		}

		switch reportFormat {
		case "json":
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting report as JSON: %w", err)
			}
			fmt.Println(string(data))
		case "yaml":
			data, err := yaml.Marshal(report)
			if err != nil {
				return fmt.Errorf("formatting report as YAML: %w", err)
			}
			fmt.Print(string(data))
		case "text", "":
			printWeeklyReport(report)
		default:
			return fmt.Errorf("unknown format %q: must be text, json or yaml", reportFormat)
		}
		return nil
	},
}

func printWeeklyReport(r *core.WeeklyReport) {
	fmt.Printf("Week of %s: %d block(s) logged\n\n", r.WeekStart, r.TotalBlocks)
	fmt.Printf("  %-10s %8s %8s %8s\n", "BUCKET", "ACTUAL", "TARGET", "ERROR")
	over := color.New(color.FgRed)
	for _, b := range models.AllBuckets() {
		name := b.String()
		errStr := fmt.Sprintf("%+8.3f", r.RatioErrors[name])
		if e := r.RatioErrors[name]; e > 0.15 || e < -0.15 {
			errStr = over.Sprint(errStr)
		}
		fmt.Printf("  %-10s %8.3f %8.3f %s\n", name, r.RealizedRatios[name], r.TargetRatios[name], errStr)
	}

	if ob := r.OriginalBuckets; ob != nil && ob.TotalEntries > 0 {
		fmt.Printf("\n  Logged work by bucket (%d entries):\n", ob.TotalEntries)
		for _, name := range sortedKeys(ob.Counts) {
			fmt.Printf("    %-14s %3d  %5.1f%%\n", name, ob.Counts[name], ob.Percentages[name]*100)
		}
		if len(ob.ChaosCounts) > 0 {
			fmt.Println("\n  Counted as Chaos:")
			for _, name := range sortedKeys(ob.ChaosCounts) {
				fmt.Printf("    %-14s %3d  %5.1f%%\n", name, ob.ChaosCounts[name], ob.ChaosPercentages[name]*100)
			}
		}
	}

	if a := r.Adherence; a != nil && a.Plans > 0 {
		fmt.Printf("\n  Plans: %d, blocks done %d/%d (%.0f%%)\n",
			a.Plans, a.DoneBlocks, a.TotalBlocks, a.CompletionRate*100)
	}

	printQualityFeedback(r.QualityViolations, r.Suggestion)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func init() {
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Output format: text, json or yaml")
	reportCmd.Flags().BoolVar(&reportGantt, "gantt", false, "Print a Mermaid Gantt chart")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "With --gantt, chart every plan of the week")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "With --gantt, the plan date (default today)")
	rootCmd.AddCommand(reportCmd)
}
