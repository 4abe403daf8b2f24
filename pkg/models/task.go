package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaskStatus represents the lifecycle state of a task: todo -> planned -> wip -> done.
type TaskStatus string

const (
	StatusTodo    TaskStatus = "todo"
	StatusPlanned TaskStatus = "planned"
	StatusWIP     TaskStatus = "wip"
	StatusDone    TaskStatus = "done"
)

// ValidTaskStatuses lists every accepted status.
var ValidTaskStatuses = []TaskStatus{StatusTodo, StatusPlanned, StatusWIP, StatusDone}

// ParseTaskStatus validates a status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	for _, st := range ValidTaskStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: status %q must be one of todo, planned, wip, done", ErrInvalidTask, s)
}

// Plannable reports whether a task in this status may be assigned to a slot.
func (s TaskStatus) Plannable() bool {
	return s == StatusTodo || s == StatusPlanned || s == StatusWIP
}

// DateLayout is the ISO calendar date format used for plans and week starts.
const DateLayout = "2006-01-02"

// Task is a unit of work with the attributes the scorer consumes.
type Task struct {
	ID           int        `yaml:"id" json:"id"`
	Title        string     `yaml:"title" json:"title"`
	Bucket       string     `yaml:"bucket" json:"bucket"`
	Urgency      int        `yaml:"urgency" json:"urgency"`
	Impact       int        `yaml:"impact" json:"impact"`
	Size         float64    `yaml:"size" json:"size"`
	Difficulty   int        `yaml:"difficulty" json:"difficulty"`
	Status       TaskStatus `yaml:"status" json:"status"`
	PlannedDate  string     `yaml:"planned_date,omitempty" json:"planned_date,omitempty"`
	SLAPenalty   float64    `yaml:"sla_penalty" json:"sla_penalty"`
	AgeDays      int        `yaml:"age_days" json:"age_days"`
	DeadlineDays *int       `yaml:"deadline_days,omitempty" json:"deadline_days,omitempty"`
}

// PlanningBucket returns the bucket the transition model sees for this task.
func (t *Task) PlanningBucket() Bucket {
	return ToPlanningBucket(t.Bucket)
}

// Done reports whether the task is completed and therefore never plannable.
func (t *Task) Done() bool {
	return t.Status == StatusDone
}

// HasDeadline reports whether a deadline is set. A negative value means past
// due, which still counts as having a deadline.
func (t *Task) HasDeadline() bool {
	return t.DeadlineDays != nil
}

// Validate checks every attribute range. Entities are rejected at
// construction time rather than when they are planned.
func (t *Task) Validate() error {
	var errs []string
	if strings.TrimSpace(t.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	if strings.TrimSpace(t.Bucket) == "" {
		errs = append(errs, "bucket must not be empty")
	}
	if t.Urgency < 0 || t.Urgency > 5 {
		errs = append(errs, fmt.Sprintf("urgency %d must be between 0 and 5", t.Urgency))
	}
	if t.Impact < 1 || t.Impact > 5 {
		errs = append(errs, fmt.Sprintf("impact %d must be between 1 and 5", t.Impact))
	}
	if !(t.Size > 0) {
		errs = append(errs, fmt.Sprintf("size %v must be greater than 0", t.Size))
	}
	if t.Difficulty < 0 || t.Difficulty > 5 {
		errs = append(errs, fmt.Sprintf("difficulty %d must be between 0 and 5", t.Difficulty))
	}
	if _, err := ParseTaskStatus(string(t.Status)); err != nil {
		errs = append(errs, fmt.Sprintf("status %q must be one of todo, planned, wip, done", t.Status))
	}
	if t.SLAPenalty < 0 {
		errs = append(errs, fmt.Sprintf("sla_penalty %v must be non-negative", t.SLAPenalty))
	}
	if t.AgeDays < 0 {
		errs = append(errs, fmt.Sprintf("age_days %d must be non-negative", t.AgeDays))
	}
	if t.PlannedDate != "" {
		if _, err := time.Parse(DateLayout, t.PlannedDate); err != nil {
			errs = append(errs, fmt.Sprintf("planned_date %q must be YYYY-MM-DD", t.PlannedDate))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTask, strings.Join(errs, "; "))
	}
	return nil
}

// NewTask builds a todo task and validates it.
func NewTask(title, bucket string, urgency, impact int, size float64, difficulty int) (*Task, error) {
	t := &Task{
		Title:      title,
		Bucket:     bucket,
		Urgency:    urgency,
		Impact:     impact,
		Size:       size,
		Difficulty: difficulty,
		Status:     StatusTodo,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// taskSizeHours maps T-shirt sizes to estimated hours.
var taskSizeHours = map[string]float64{
	"XS": 0.5,
	"S":  1.0,
	"M":  2.0,
	"L":  4.0,
	"XL": 8.0,
}

// ParseTaskSize accepts either a T-shirt size (XS, S, M, L, XL) or a positive
// number of hours.
func ParseTaskSize(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if h, ok := taskSizeHours[strings.ToUpper(trimmed)]; ok {
		return h, nil
	}
	h, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("%w: size %q must be XS, S, M, L, XL or a positive number of hours", ErrInvalidTask, s)
	}
	return h, nil
}

// TaskList is the persisted task collection. NextID only ever grows, so ids
// of removed tasks are never handed out again.
type TaskList struct {
	NextID int    `yaml:"next_id" json:"next_id"`
	Tasks  []Task `yaml:"tasks" json:"tasks"`
}

// Find returns the task with the given id.
func (l *TaskList) Find(id int) (*Task, error) {
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			return &l.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
}

// Add assigns the next id to t and appends it.
func (l *TaskList) Add(t Task) Task {
	for _, existing := range l.Tasks {
		if existing.ID >= l.NextID {
			l.NextID = existing.ID + 1
		}
	}
	if l.NextID < 1 {
		l.NextID = 1
	}
	t.ID = l.NextID
	l.NextID++
	l.Tasks = append(l.Tasks, t)
	return t
}

// Remove deletes the task with the given id and returns it.
func (l *TaskList) Remove(id int) (Task, error) {
	for i := range l.Tasks {
		if l.Tasks[i].ID == id {
			removed := l.Tasks[i]
			l.Tasks = append(l.Tasks[:i], l.Tasks[i+1:]...)
			return removed, nil
		}
	}
	return Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
}
