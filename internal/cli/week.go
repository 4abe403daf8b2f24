package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Maintain the weekly transition model",
	Long: `Maintain the weekly transition model.

reset starts a fresh week: all counts and transitions are zeroed and nothing
carries over. decay ages the transitions instead, keeping a fraction of the
learned pattern. Neither runs the other.`,
}

var weekResetStart string

var weekResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Start a fresh week with zeroed counts and transitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Maintenance == nil {
			return fmt.Errorf("weekly maintenance not initialized")
		}
		state, err := Maintenance.ResetWeek(weekResetStart)
		if err != nil {
			return err
		}
		fmt.Printf("Week reset, starting %s\n", state.WeekStart)
		return nil
	},
}

var weekDecayFactor float64

var weekDecayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Scale the transitions by a decay factor",
	Long: `Multiply every transition by the decay factor, then add the Laplace
constant back on the diagonal. The factor defaults to weekly_decay.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Maintenance == nil {
			return fmt.Errorf("weekly maintenance not initialized")
		}
		factor := weekDecayFactor
		if !cmd.Flags().Changed("factor") && Config != nil {
			factor = Config.WeeklyDecay
		}
		state, err := Maintenance.DecayTransitions(factor)
		if err != nil {
			return err
		}
		fmt.Printf("Transitions decayed by %g for the week of %s\n", factor, state.WeekStart)
		return nil
	},
}

var weekShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show this week's counts and current bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Maintenance == nil {
			return fmt.Errorf("weekly maintenance not initialized")
		}
		state, err := Maintenance.CurrentState()
		if err != nil {
			return err
		}
		fmt.Printf("Week of %s, current bucket %s\n\n", state.WeekStart, state.CurrentBucket)
		share := state.RealizedShare()
		for _, b := range models.AllBuckets() {
			fmt.Printf("  %-10s %3d  %5.1f%%\n", b, state.WeeklyBlocks[b], share[b]*100)
		}
		fmt.Printf("\n  Total: %d\n", state.WeeklyBlocks.Total())
		return nil
	},
}

func init() {
	weekResetCmd.Flags().StringVar(&weekResetStart, "start", "", "Week start date (YYYY-MM-DD, default today)")
	weekDecayCmd.Flags().Float64Var(&weekDecayFactor, "factor", 0.85, "Decay factor in (0, 1)")
	weekCmd.AddCommand(weekResetCmd, weekDecayCmd, weekShowCmd)
	rootCmd.AddCommand(weekCmd)
}
