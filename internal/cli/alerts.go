package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/internal/observability"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show weekly balance alerts",
	Long: `Evaluate this week's bucket balance against the targets and display any
triggered alerts: Feature work below its minimum, the bucket furthest off its
target, and Chaos work above its target.

With --notify, the alerts are also posted to the Slack webhook configured
under notifications.slack.webhook_url.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if AlertEngine == nil {
			return fmt.Errorf("alert engine not initialized (observability may be disabled)")
		}

		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			return fmt.Errorf("evaluating alerts: %w", err)
		}

		if len(alerts) == 0 {
			fmt.Println("No active alerts.")
			return nil
		}

		fmt.Printf("%d active alert(s):\n\n", len(alerts))
		for _, alert := range alerts {
			severity := severityColor(alert.Severity).Sprintf("[%s]", strings.ToUpper(string(alert.Severity)))
			fmt.Printf("  %s %s\n", severity, alert.Message)
			fmt.Printf("         triggered at %s\n\n", alert.TriggeredAt.Format("2006-01-02 15:04 UTC"))
		}

		if alertsNotify {
			if Notifier == nil {
				return fmt.Errorf("no notifier configured: set notifications.slack.webhook_url")
			}
			if err := Notifier.Notify(alerts); err != nil {
				return fmt.Errorf("sending alerts: %w", err)
			}
			fmt.Println("Alerts sent to Slack.")
		}

		return nil
	},
}

func severityColor(s observability.AlertSeverity) *color.Color {
	switch s {
	case observability.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case observability.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgBlue)
	}
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Post the alerts to Slack")
	rootCmd.AddCommand(alertsCmd)
}
