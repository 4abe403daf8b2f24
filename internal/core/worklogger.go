package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// LogRequest describes one unit of completed work. At least one of Block and
// TaskID must be set:
//
//   - Block only: the planned block is completed, optionally with a different
//     actual bucket or title.
//   - TaskID only: unplanned work on a task, no plan is touched.
//   - Both: the block's content is replaced by the task's, then completed.
type LogRequest struct {
	Date         string
	Block        *int
	TaskID       *int
	ActualBucket string
	ActualTitle  string
	Notes        string
	// CompleteTask also marks the referenced task done.
	CompleteTask bool
}

// LogResult reports what was recorded.
type LogResult struct {
	Bucket         string
	Title          string
	PlanningBucket models.Bucket
	Entry          models.WorkLogEntry
}

// WorkLogger feeds completed work back into the transition model.
type WorkLogger interface {
	Log(req LogRequest) (*LogResult, error)
}

type workLogger struct {
	tasks       TaskStore
	states      StateStore
	plans       PlanStore
	worklog     WorkLogStore
	eventLogger EventLogger
	logger      *zap.Logger
	now         func() time.Time
}

// NewWorkLogger creates a WorkLogger. eventLogger and logger may be nil.
func NewWorkLogger(tasks TaskStore, states StateStore, plans PlanStore, worklog WorkLogStore, eventLogger EventLogger, logger *zap.Logger) WorkLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &workLogger{
		tasks:       tasks,
		states:      states,
		plans:       plans,
		worklog:     worklog,
		eventLogger: eventLogger,
		logger:      logger,
		now:         time.Now,
	}
}

// Log validates the whole request before mutating anything: the block must
// exist and still be planned, and the task must exist. Only then are the
// weekly state, the plan and the work log written, in that order.
func (w *workLogger) Log(req LogRequest) (*LogResult, error) {
	if req.Block == nil && req.TaskID == nil {
		return nil, errors.New("logging work: either a block number or a task id is required")
	}
	if req.Block != nil {
		if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
			return nil, fmt.Errorf("logging work: date %q must be YYYY-MM-DD", req.Date)
		}
	}

	var (
		taskList *models.TaskList
		task     *models.Task
		plan     *models.Plan
		block    *models.Block
	)

	if req.TaskID != nil {
		var err error
		taskList, err = w.tasks.LoadTasks()
		if err != nil {
			return nil, fmt.Errorf("logging work: loading tasks: %w", err)
		}
		task, err = taskList.Find(*req.TaskID)
		if err != nil {
			return nil, fmt.Errorf("logging work: %w", err)
		}
	}

	if req.Block != nil {
		var err error
		plan, err = w.plans.LoadPlan(req.Date)
		if err != nil {
			return nil, fmt.Errorf("logging work: loading plan: %w", err)
		}
		block, err = plan.FindBlock(*req.Block)
		if err != nil {
			return nil, fmt.Errorf("logging work: %w", err)
		}
		if block.Completed() {
			return nil, fmt.Errorf("logging work: %w", &models.BlockCompletedError{Block: block.Block})
		}
	}

	bucket, title := resolveActual(req, block, task)
	if strings.TrimSpace(bucket) == "" || strings.TrimSpace(title) == "" {
		return nil, errors.New("logging work: actual bucket and title must not be empty")
	}

	state, err := w.loadOrCreateState(req.Date)
	if err != nil {
		return nil, err
	}

	if block != nil {
		if task != nil {
			if err := block.UpdateContent(bucket, title); err != nil {
				return nil, fmt.Errorf("logging work: %w", err)
			}
			block.TaskID = task.ID
		}
		if err := block.MarkDone(); err != nil {
			return nil, fmt.Errorf("logging work: %w", err)
		}
	}

	planning := models.ToPlanningBucket(bucket)
	prev := state.CurrentBucket
	RecordTransition(state, planning)

	if err := w.states.SaveState(state); err != nil {
		return nil, fmt.Errorf("logging work: saving state: %w", err)
	}
	if plan != nil {
		if err := w.plans.SavePlan(plan); err != nil {
			return nil, fmt.Errorf("logging work: saving plan: %w", err)
		}
	}
	if task != nil && req.CompleteTask && !task.Done() {
		old := task.Status
		task.Status = models.StatusDone
		if err := w.tasks.SaveTasks(taskList); err != nil {
			return nil, fmt.Errorf("logging work: saving tasks: %w", err)
		}
		emit(w.eventLogger, EventTaskStatusChanged, map[string]any{
			"task_id":    task.ID,
			"old_status": string(old),
			"new_status": string(models.StatusDone),
		})
	}

	entry := models.WorkLogEntry{
		Date:         req.Date,
		Block:        req.Block,
		TaskID:       req.TaskID,
		ActualBucket: bucket,
		ActualTitle:  title,
		Notes:        req.Notes,
		LoggedAt:     w.now().UTC(),
	}
	if entry.Date == "" {
		entry.Date = w.now().Format(models.DateLayout)
	}
	if err := w.worklog.Append(entry); err != nil {
		return nil, fmt.Errorf("logging work: appending work log: %w", err)
	}

	w.logger.Info("work logged",
		zap.String("bucket", bucket),
		zap.Stringer("from", prev),
		zap.Stringer("to", planning))

	eventType := EventTaskLogged
	data := map[string]any{
		"bucket":          bucket,
		"planning_bucket": planning.String(),
		"previous_bucket": prev.String(),
	}
	if req.Block != nil {
		eventType = EventBlockLogged
		data["date"] = req.Date
		data["block"] = *req.Block
	}
	if req.TaskID != nil {
		data["task_id"] = *req.TaskID
	}
	emit(w.eventLogger, eventType, data)

	return &LogResult{Bucket: bucket, Title: title, PlanningBucket: planning, Entry: entry}, nil
}

// resolveActual picks the bucket and title that were actually worked on.
// A task always wins; otherwise overrides fall back to the block's content.
func resolveActual(req LogRequest, block *models.Block, task *models.Task) (string, string) {
	if task != nil {
		return task.Bucket, task.Title
	}
	bucket, title := req.ActualBucket, req.ActualTitle
	if bucket == "" {
		bucket = block.Bucket
	}
	if title == "" {
		title = block.Title
	}
	return bucket, title
}

func (w *workLogger) loadOrCreateState(date string) (*models.WeeklyState, error) {
	state, err := w.states.LoadState()
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("logging work: loading state: %w", err)
	}
	if date == "" {
		date = w.now().Format(models.DateLayout)
	}
	return NewWeeklyState(date), nil
}
