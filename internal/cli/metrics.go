package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display planning metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include plans generated, how slots were filled, blocks and tasks
logged per planning bucket, and task lifecycle counts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Plans generated:", metrics.PlansGenerated)
		fmt.Printf("  %-24s %d\n", "Blocks planned:", metrics.BlocksPlanned)
		fmt.Printf("  %-24s %d\n", "  preempted:", metrics.BlocksPreempted)
		fmt.Printf("  %-24s %d\n", "  fallbacks:", metrics.Fallbacks)
		fmt.Printf("  %-24s %d\n", "  placeholders:", metrics.Placeholders)
		fmt.Printf("  %-24s %d\n", "Blocks logged:", metrics.BlocksLogged)
		fmt.Printf("  %-24s %d\n", "Unplanned task work:", metrics.TasksLogged)
		fmt.Printf("  %-24s %.0f%%\n", "Completion rate:", metrics.CompletionRate()*100)
		fmt.Printf("  %-24s %d\n", "Tasks created:", metrics.TasksCreated)
		fmt.Printf("  %-24s %d\n", "Tasks completed:", metrics.TasksCompleted)

		if len(metrics.LoggedByBucket) > 0 {
			fmt.Println("\n  Logged by bucket:")
			for _, name := range sortedKeys(metrics.LoggedByBucket) {
				fmt.Printf("    %-20s %d\n", name+":", metrics.LoggedByBucket[name])
			}
		}

		if metrics.WeekResets > 0 || metrics.Decays > 0 {
			fmt.Printf("\n  %-24s %d\n", "Week resets:", metrics.WeekResets)
			fmt.Printf("  %-24s %d\n", "Decays:", metrics.Decays)
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	ref := now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return ref.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return ref.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return ref.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
