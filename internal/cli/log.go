package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

var (
	logDate     string
	logBlock    int
	logTaskID   int
	logBucket   string
	logTitle    string
	logNotes    string
	logComplete bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log completed work",
	Long: `Log a completed block or unplanned task work and feed it back into the
weekly transition model.

  dayflow log --block 2                       complete block 2 as planned
  dayflow log --block 2 --bucket Meetings     complete block 2 as other work
  dayflow log --task 7                        unplanned work on task 7
  dayflow log --block 2 --task 7              block 2 was spent on task 7

A block can only be logged once. Add --complete to also mark the task done.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if WorkLogger == nil {
			return fmt.Errorf("work logger not initialized")
		}

		req, err := logRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		result, err := WorkLogger.Log(req)
		if err != nil {
			var completed *models.BlockCompletedError
			if errors.As(err, &completed) {
				return fmt.Errorf("block %d is already logged; nothing was changed", completed.Block)
			}
			return err
		}

		switch {
		case req.Block != nil:
			fmt.Printf("Logged block %d as %s: %s\n", *req.Block, result.Bucket, result.Title)
		default:
			fmt.Printf("Logged task %d as %s: %s\n", *req.TaskID, result.Bucket, result.Title)
		}
		if result.PlanningBucket.String() != result.Bucket {
			fmt.Printf("  %s\n", color.New(color.FgYellow).Sprintf("counted as %s", result.PlanningBucket))
		}
		if req.CompleteTask && req.TaskID != nil {
			fmt.Printf("  Task %d marked done\n", *req.TaskID)
		}
		return nil
	},
}

func logRequestFromFlags(cmd *cobra.Command) (core.LogRequest, error) {
	req := core.LogRequest{
		Date:         logDate,
		ActualBucket: logBucket,
		ActualTitle:  logTitle,
		Notes:        logNotes,
		CompleteTask: logComplete,
	}
	if cmd.Flags().Changed("block") {
		b := logBlock
		req.Block = &b
	}
	if cmd.Flags().Changed("task") {
		id := logTaskID
		req.TaskID = &id
	}
	if req.Block == nil && req.TaskID == nil {
		return req, fmt.Errorf("either --block or --task is required")
	}
	if req.TaskID != nil && (logBucket != "" || logTitle != "") {
		return req, fmt.Errorf("--bucket and --title cannot be combined with --task")
	}
	if req.Block != nil && req.Date == "" {
		req.Date = today()
	}
	return req, nil
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "Plan date of the block (YYYY-MM-DD, default today)")
	logCmd.Flags().IntVar(&logBlock, "block", 0, "Block number to complete")
	logCmd.Flags().IntVar(&logTaskID, "task", 0, "Task id worked on")
	logCmd.Flags().StringVar(&logBucket, "bucket", "", "Actual bucket, when it differs from the plan")
	logCmd.Flags().StringVar(&logTitle, "title", "", "Actual title, when it differs from the plan")
	logCmd.Flags().StringVar(&logNotes, "notes", "", "Free-form notes")
	logCmd.Flags().BoolVar(&logComplete, "complete", false, "Also mark the task done")
	_ = logCmd.RegisterFlagCompletionFunc("bucket", completeBuckets)
	_ = logCmd.RegisterFlagCompletionFunc("task", completeTaskIDs(models.StatusDone))
	rootCmd.AddCommand(logCmd)
}
