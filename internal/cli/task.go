package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (add, edit, mark, remove, list, find)",
	Long: `Manage the task collection that plans are filled from.

Tasks carry a free-form bucket (Feature, Bug, R&D, Docs, Review, Support,
Urgent or anything else, which plans as Chaos), urgency and impact from 1 to
5, a size in hours or as XS/S/M/L/XL, and a difficulty from 0 to 5.`,
}

// Flags of "task add".
var (
	taskBucketFlag       string
	taskUrgencyFlag      int
	taskImpactFlag       int
	taskSizeFlag         string
	taskDifficultyFlag   int
	taskSLAPenaltyFlag   float64
	taskAgeDaysFlag      int
	taskDeadlineDaysFlag int
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		size, err := models.ParseTaskSize(taskSizeFlag)
		if err != nil {
			return err
		}
		task := models.Task{
			Title:      args[0],
			Bucket:     taskBucketFlag,
			Urgency:    taskUrgencyFlag,
			Impact:     taskImpactFlag,
			Size:       size,
			Difficulty: taskDifficultyFlag,
			SLAPenalty: taskSLAPenaltyFlag,
			AgeDays:    taskAgeDaysFlag,
			Status:     models.StatusTodo,
		}
		if cmd.Flags().Changed("deadline-days") {
			d := taskDeadlineDaysFlag
			task.DeadlineDays = &d
		}

		added, err := TaskMgr.AddTask(task)
		if err != nil {
			return err
		}

		fmt.Printf("Added task %d\n", added.ID)
		printTaskDetails(added)
		return nil
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit fields of a task",
	Long: `Edit any field of a task. Only the flags you pass are changed; the task
is validated again before it is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}

		edit, err := taskEditFromFlags(cmd)
		if err != nil {
			return err
		}
		updated, err := TaskMgr.EditTask(id, edit)
		if err != nil {
			return err
		}

		fmt.Printf("Updated task %d\n", updated.ID)
		printTaskDetails(updated)
		return nil
	},
}

func taskEditFromFlags(cmd *cobra.Command) (core.TaskEdit, error) {
	var edit core.TaskEdit
	flags := cmd.Flags()
	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		edit.Title = &v
	}
	if flags.Changed("bucket") {
		v, _ := flags.GetString("bucket")
		edit.Bucket = &v
	}
	if flags.Changed("urgency") {
		v, _ := flags.GetInt("urgency")
		edit.Urgency = &v
	}
	if flags.Changed("impact") {
		v, _ := flags.GetInt("impact")
		edit.Impact = &v
	}
	if flags.Changed("size") {
		raw, _ := flags.GetString("size")
		size, err := models.ParseTaskSize(raw)
		if err != nil {
			return edit, err
		}
		edit.Size = &size
	}
	if flags.Changed("difficulty") {
		v, _ := flags.GetInt("difficulty")
		edit.Difficulty = &v
	}
	if flags.Changed("sla-penalty") {
		v, _ := flags.GetFloat64("sla-penalty")
		edit.SLAPenalty = &v
	}
	if flags.Changed("age-days") {
		v, _ := flags.GetInt("age-days")
		edit.AgeDays = &v
	}
	if flags.Changed("deadline-days") {
		v, _ := flags.GetInt("deadline-days")
		edit.DeadlineDays = &v
	}
	edit.ClearDeadline, _ = flags.GetBool("clear-deadline")
	return edit, nil
}

var taskMarkDate string

var taskMarkCmd = &cobra.Command{
	Use:   "mark <id> <status>",
	Short: "Set a task's status (todo, planned, wip, done)",
	Long: `Set a task's status. Marking a task planned records the planned date,
which defaults to today. Done tasks are never planned again.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		status, err := models.ParseTaskStatus(args[1])
		if err != nil {
			return err
		}

		task, err := TaskMgr.SetStatus(id, status, taskMarkDate)
		if err != nil {
			return err
		}
		fmt.Printf("Task %d is now %s\n", task.ID, task.Status)
		if task.Status == models.StatusPlanned {
			fmt.Printf("  Planned for: %s\n", task.PlannedDate)
		}
		return nil
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		removed, err := TaskMgr.RemoveTask(id)
		if err != nil {
			return err
		}
		fmt.Printf("Removed task %d: %s\n", removed.ID, removed.Title)
		return nil
	},
}

var (
	taskListStatus  []string
	taskListExclude []string
	taskListAll     bool
	taskListJSON    bool
)

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks by priority score",
	Long: `List tasks ordered by descending priority score. Done tasks are hidden
unless --all or --status done is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		filter, err := taskListFilter()
		if err != nil {
			return err
		}
		tasks, err := TaskMgr.ListTasks(filter)
		if err != nil {
			return err
		}

		if taskListJSON {
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}
		printTaskTable(tasks)
		return nil
	},
}

func taskListFilter() (core.TaskFilter, error) {
	var filter core.TaskFilter
	for _, s := range taskListStatus {
		status, err := models.ParseTaskStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Include = append(filter.Include, status)
	}
	for _, s := range taskListExclude {
		status, err := models.ParseTaskStatus(s)
		if err != nil {
			return filter, err
		}
		filter.Exclude = append(filter.Exclude, status)
	}
	if !taskListAll && len(filter.Include) == 0 && len(filter.Exclude) == 0 {
		filter.Exclude = []models.TaskStatus{models.StatusDone}
	}
	return filter, nil
}

var taskFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Find tasks whose title contains a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		tasks, err := TaskMgr.FindTasks(args[0])
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Printf("No tasks matching %q.\n", args[0])
			return nil
		}
		for _, t := range tasks {
			fmt.Printf("  %-4d %-8s %-10s %s\n", t.ID, t.Status, t.Bucket, t.Title)
		}
		return nil
	},
}

func parseTaskID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q: must be a positive number", s)
	}
	return id, nil
}

func printTaskDetails(t *models.Task) {
	fmt.Printf("  Title:      %s\n", t.Title)
	fmt.Printf("  Bucket:     %s", t.Bucket)
	if pb := t.PlanningBucket(); pb.String() != t.Bucket {
		fmt.Printf(" %s", color.New(color.FgYellow).Sprintf("(plans as %s)", pb))
	}
	fmt.Println()
	fmt.Printf("  Urgency:    %d\n", t.Urgency)
	fmt.Printf("  Impact:     %d\n", t.Impact)
	fmt.Printf("  Size:       %gh\n", t.Size)
	fmt.Printf("  Difficulty: %d\n", t.Difficulty)
	if t.HasDeadline() {
		fmt.Printf("  Deadline:   %d day(s)\n", *t.DeadlineDays)
	}
	fmt.Printf("  Status:     %s\n", t.Status)
}

func printTaskTable(tasks []core.ScoredTask) {
	fmt.Printf("  %-4s %-7s %-8s %-10s %s\n", "ID", "SCORE", "STATUS", "BUCKET", "TITLE")
	for _, st := range tasks {
		status := string(st.Task.Status)
		switch st.Task.Status {
		case models.StatusDone:
			status = color.New(color.FgGreen).Sprintf("%-8s", status)
		case models.StatusWIP:
			status = color.New(color.FgYellow).Sprintf("%-8s", status)
		default:
			status = fmt.Sprintf("%-8s", status)
		}
		fmt.Printf("  %-4d %-7.2f %s %-10s %s\n", st.Task.ID, st.Score, status, st.Task.Bucket, st.Task.Title)
	}
}

func addTaskFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&taskBucketFlag, "bucket", "b", "Feature", "Work category (Feature, Bug, R&D, Docs, Review, Support, Urgent, or free-form)")
	cmd.Flags().IntVarP(&taskUrgencyFlag, "urgency", "u", 3, "Urgency 1-5")
	cmd.Flags().IntVarP(&taskImpactFlag, "impact", "i", 3, "Impact 1-5")
	cmd.Flags().StringVarP(&taskSizeFlag, "size", "s", "1", "Size in hours or XS/S/M/L/XL")
	cmd.Flags().IntVarP(&taskDifficultyFlag, "difficulty", "d", 0, "Difficulty 0-5")
	cmd.Flags().Float64Var(&taskSLAPenaltyFlag, "sla-penalty", 0, "Extra score for SLA pressure")
	cmd.Flags().IntVar(&taskAgeDaysFlag, "age-days", 0, "Days the task has been waiting")
	cmd.Flags().IntVar(&taskDeadlineDaysFlag, "deadline-days", 0, "Days until the deadline")
}

func editTaskFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("bucket", "b", "", "New work category")
	cmd.Flags().IntP("urgency", "u", 0, "Urgency 1-5")
	cmd.Flags().IntP("impact", "i", 0, "Impact 1-5")
	cmd.Flags().StringP("size", "s", "", "Size in hours or XS/S/M/L/XL")
	cmd.Flags().IntP("difficulty", "d", 0, "Difficulty 0-5")
	cmd.Flags().Float64("sla-penalty", 0, "Extra score for SLA pressure")
	cmd.Flags().Int("age-days", 0, "Days the task has been waiting")
	cmd.Flags().Int("deadline-days", 0, "Days until the deadline")
	cmd.Flags().Bool("clear-deadline", false, "Remove the deadline")
}

func init() {
	addTaskFlags(taskAddCmd)
	editTaskFlags(taskEditCmd)
	_ = taskAddCmd.RegisterFlagCompletionFunc("bucket", completeBuckets)
	_ = taskEditCmd.RegisterFlagCompletionFunc("bucket", completeBuckets)

	taskMarkCmd.Flags().StringVar(&taskMarkDate, "date", "", "Planned date (YYYY-MM-DD, default today)")
	taskMarkCmd.ValidArgsFunction = completeTaskIDsThenStatuses

	taskEditCmd.ValidArgsFunction = completeTaskIDs(models.StatusDone)
	taskRemoveCmd.ValidArgsFunction = completeTaskIDs()

	taskListCmd.Flags().StringSliceVar(&taskListStatus, "status", nil, "Only show these statuses")
	taskListCmd.Flags().StringSliceVar(&taskListExclude, "exclude", nil, "Hide these statuses")
	taskListCmd.Flags().BoolVarP(&taskListAll, "all", "a", false, "Include done tasks")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output as JSON")

	taskCmd.AddCommand(taskAddCmd, taskEditCmd, taskMarkCmd, taskRemoveCmd, taskListCmd, taskFindCmd)
	rootCmd.AddCommand(taskCmd)
}
