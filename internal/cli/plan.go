package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate or show a day's plan",
}

var planDate string

var planGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the plan for a day",
	Long: `Generate the plan for a day (default today) and save it.

Each slot is filled in order: an urgent task scoring at or above
urgent_threshold preempts the slot, then a support task at or above
support_threshold while the support budget lasts. Otherwise the next bucket
is sampled from the weekly transition model, biased toward the targets and
the slot's focus, and the best-scoring unused task of that bucket is taken.

Regenerating keeps blocks already marked done.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if PlanSvc == nil {
			return fmt.Errorf("plan service not initialized")
		}

		outcome, err := PlanSvc.GeneratePlan(planDate)
		if err != nil {
			if errors.Is(err, models.ErrConfigMismatch) {
				return fmt.Errorf("%w\nfix blocks_per_day or block_config in %s", err, core.ConfigFileName)
			}
			return err
		}

		if outcome.StateCreated {
			fmt.Printf("Started a new week on %s\n", outcome.Plan.Date)
		}
		fmt.Printf("Plan for %s\n\n", outcome.Plan.Date)
		fmt.Print(renderPlan(outcome.Plan, planFocus()))
		fmt.Printf("\n  %d carried over, %d preempted, %d sampled, %d fallback, %d placeholder\n",
			outcome.CarriedOver, outcome.Preempted, outcome.Sampled, outcome.Fallbacks, outcome.Placeholders)

		printQualityFeedback(outcome.QualityViolations, outcome.Suggestion)
		return nil
	},
}

var planShowJSON bool

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved plan for a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if PlanSvc == nil {
			return fmt.Errorf("plan service not initialized")
		}

		plan, err := PlanSvc.GetPlan(planDate)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("%w (run 'dayflow plan generate' first)", err)
			}
			return err
		}

		if planShowJSON {
			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting plan as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Plan for %s (%d/%d done)\n\n", plan.Date, plan.DoneCount(), len(plan.Blocks))
		fmt.Print(renderPlan(plan, planFocus()))
		return nil
	},
}

var (
	blockDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	blockPlannedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	bucketStyle       = lipgloss.NewStyle().Bold(true).Width(10)
	placeholderStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
)

// planFocus returns the slot table of the loaded config, or nil when the
// config does not describe a valid slot table.
func planFocus() *core.FocusPolicy {
	if Config == nil {
		return nil
	}
	focus, err := core.NewFocusPolicy(Config.BlocksPerDay, Config.Slots)
	if err != nil {
		return nil
	}
	return focus
}

// renderPlan draws one line per block: number, slot name, status, bucket,
// score and title.
func renderPlan(plan *models.Plan, focus *core.FocusPolicy) string {
	var b strings.Builder
	for _, block := range plan.Blocks {
		status := blockPlannedStyle.Render("[ ]")
		if block.Completed() {
			status = blockDoneStyle.Render("[x]")
		}
		slot := focus.Name(block.Block)
		title := block.Title
		if block.ExpectedScore == 0 && strings.HasSuffix(title, "No tasks available") {
			title = placeholderStyle.Render(title)
		}
		fmt.Fprintf(&b, "  %d. %-12s %s %s %5.2f  %s\n",
			block.Block, slot, status, bucketStyle.Render(block.Bucket), block.ExpectedScore, title)
	}
	return b.String()
}

// printQualityFeedback prints the weekly quality warnings and the focus
// suggestion, if any.
func printQualityFeedback(violations []string, suggestion string) {
	if len(violations) == 0 && suggestion == "" {
		return
	}
	fmt.Println()
	warn := color.New(color.FgYellow)
	for _, v := range violations {
		fmt.Printf("  %s %s\n", warn.Sprint("!"), v)
	}
	if suggestion != "" {
		fmt.Printf("  %s %s\n", color.New(color.FgCyan).Sprint("Tip:"), suggestion)
	}
}

func init() {
	planCmd.PersistentFlags().StringVar(&planDate, "date", "", "Plan date (YYYY-MM-DD, default today)")
	planShowCmd.Flags().BoolVar(&planShowJSON, "json", false, "Output as JSON")
	planCmd.AddCommand(planGenerateCmd, planShowCmd)
	rootCmd.AddCommand(planCmd)
}
