package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// now is replaced in tests.
var now = time.Now

func today() string {
	return now().Format(models.DateLayout)
}

var rootCmd = &cobra.Command{
	Use:   "dayflow",
	Short: "dayflow - Markov-chain daily work-block planner",
	Long: `dayflow plans each working day as a fixed number of time blocks.

Tasks are scored by urgency, impact, size and difficulty. Each block is
filled either by preempting an urgent or support task, or by sampling the
next work category from a weekly transition model biased toward your target
category mix. Logging completed blocks feeds the model back.

The data directory is $DAYFLOW_HOME, or the nearest parent directory holding
blocks_config.yaml, or the current directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if ConfigErr == nil || configRepairAllowed(cmd) {
			return nil
		}
		return fmt.Errorf("%w (run 'dayflow config init --force' to rewrite it)", ConfigErr)
	},
}

// configRepairAllowed reports whether cmd may run with a broken
// blocks_config.yaml.
func configRepairAllowed(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "config", "version", "completion", "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dayflow %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
