package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// TaskEdit carries optional field updates. Nil fields are left unchanged.
type TaskEdit struct {
	Title        *string
	Bucket       *string
	Urgency      *int
	Impact       *int
	Size         *float64
	Difficulty   *int
	SLAPenalty   *float64
	AgeDays      *int
	DeadlineDays *int
	// ClearDeadline removes the deadline; it wins over DeadlineDays.
	ClearDeadline bool
}

// TaskFilter selects tasks for listing. Empty slices match everything.
type TaskFilter struct {
	Include []models.TaskStatus
	Exclude []models.TaskStatus
}

func (f TaskFilter) matches(t *models.Task) bool {
	if len(f.Include) > 0 && !containsStatus(f.Include, t.Status) {
		return false
	}
	return !containsStatus(f.Exclude, t.Status)
}

func containsStatus(list []models.TaskStatus, s models.TaskStatus) bool {
	for _, st := range list {
		if st == s {
			return true
		}
	}
	return false
}

// ScoredTask pairs a task with its current priority score.
type ScoredTask struct {
	Task  models.Task `json:"task" yaml:"task"`
	Score float64     `json:"score" yaml:"score"`
}

// TaskManager defines the task lifecycle operations.
type TaskManager interface {
	AddTask(task models.Task) (*models.Task, error)
	EditTask(id int, edit TaskEdit) (*models.Task, error)
	SetStatus(id int, status models.TaskStatus, plannedDate string) (*models.Task, error)
	RemoveTask(id int) (*models.Task, error)
	GetTask(id int) (*models.Task, error)
	FindTasks(query string) ([]models.Task, error)
	ListTasks(filter TaskFilter) ([]ScoredTask, error)
}

type taskManager struct {
	store       TaskStore
	weights     ScoreWeights
	eventLogger EventLogger
	logger      *zap.Logger
	now         func() time.Time
}

// NewTaskManager creates a TaskManager backed by store. Listing is ordered by
// score under weights. eventLogger and logger may be nil.
func NewTaskManager(store TaskStore, weights ScoreWeights, eventLogger EventLogger, logger *zap.Logger) TaskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskManager{
		store:       store,
		weights:     weights,
		eventLogger: eventLogger,
		logger:      logger,
		now:         time.Now,
	}
}

// AddTask validates the task, assigns the next id and persists it.
func (tm *taskManager) AddTask(task models.Task) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}
	added := list.Add(task)
	if err := tm.store.SaveTasks(list); err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}

	tm.logger.Info("task added", zap.Int("id", added.ID), zap.String("bucket", added.Bucket))
	emit(tm.eventLogger, EventTaskCreated, map[string]any{
		"task_id": added.ID,
		"bucket":  added.Bucket,
		"status":  string(added.Status),
	})
	return &added, nil
}

// EditTask applies the edit and re-validates before saving.
func (tm *taskManager) EditTask(id int, edit TaskEdit) (*models.Task, error) {
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("editing task %d: %w", id, err)
	}
	task, err := list.Find(id)
	if err != nil {
		return nil, fmt.Errorf("editing task: %w", err)
	}

	updated := *task
	if edit.Title != nil {
		updated.Title = *edit.Title
	}
	if edit.Bucket != nil {
		updated.Bucket = *edit.Bucket
	}
	if edit.Urgency != nil {
		updated.Urgency = *edit.Urgency
	}
	if edit.Impact != nil {
		updated.Impact = *edit.Impact
	}
	if edit.Size != nil {
		updated.Size = *edit.Size
	}
	if edit.Difficulty != nil {
		updated.Difficulty = *edit.Difficulty
	}
	if edit.SLAPenalty != nil {
		updated.SLAPenalty = *edit.SLAPenalty
	}
	if edit.AgeDays != nil {
		updated.AgeDays = *edit.AgeDays
	}
	if edit.DeadlineDays != nil {
		d := *edit.DeadlineDays
		updated.DeadlineDays = &d
	}
	if edit.ClearDeadline {
		updated.DeadlineDays = nil
	}
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("editing task %d: %w", id, err)
	}

	*task = updated
	if err := tm.store.SaveTasks(list); err != nil {
		return nil, fmt.Errorf("editing task %d: %w", id, err)
	}
	return &updated, nil
}

// SetStatus changes a task's status. Moving to planned records plannedDate,
// defaulting to today.
func (tm *taskManager) SetStatus(id int, status models.TaskStatus, plannedDate string) (*models.Task, error) {
	if _, err := models.ParseTaskStatus(string(status)); err != nil {
		return nil, fmt.Errorf("setting status of task %d: %w", id, err)
	}
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("setting status of task %d: %w", id, err)
	}
	task, err := list.Find(id)
	if err != nil {
		return nil, fmt.Errorf("setting status: %w", err)
	}

	old := task.Status
	task.Status = status
	if status == models.StatusPlanned {
		if plannedDate == "" {
			plannedDate = tm.now().Format(models.DateLayout)
		}
		task.PlannedDate = plannedDate
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("setting status of task %d: %w", id, err)
	}
	if err := tm.store.SaveTasks(list); err != nil {
		return nil, fmt.Errorf("setting status of task %d: %w", id, err)
	}

	emit(tm.eventLogger, EventTaskStatusChanged, map[string]any{
		"task_id":    id,
		"old_status": string(old),
		"new_status": string(status),
	})
	out := *task
	return &out, nil
}

// RemoveTask deletes a task. Its id is never reused.
func (tm *taskManager) RemoveTask(id int) (*models.Task, error) {
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("removing task %d: %w", id, err)
	}
	removed, err := list.Remove(id)
	if err != nil {
		return nil, fmt.Errorf("removing task: %w", err)
	}
	if err := tm.store.SaveTasks(list); err != nil {
		return nil, fmt.Errorf("removing task %d: %w", id, err)
	}
	emit(tm.eventLogger, EventTaskRemoved, map[string]any{"task_id": id})
	return &removed, nil
}

// GetTask returns one task by id.
func (tm *taskManager) GetTask(id int) (*models.Task, error) {
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	task, err := list.Find(id)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	out := *task
	return &out, nil
}

// FindTasks returns tasks whose title contains query, ignoring case.
func (tm *taskManager) FindTasks(query string) ([]models.Task, error) {
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("finding tasks: %w", err)
	}
	q := strings.ToLower(query)
	var out []models.Task
	for _, t := range list.Tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListTasks returns the matching tasks by descending score; equal scores
// keep file order.
func (tm *taskManager) ListTasks(filter TaskFilter) ([]ScoredTask, error) {
	list, err := tm.store.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	var out []ScoredTask
	for i := range list.Tasks {
		t := &list.Tasks[i]
		if !filter.matches(t) {
			continue
		}
		out = append(out, ScoredTask{Task: *t, Score: Score(t, tm.weights)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}
