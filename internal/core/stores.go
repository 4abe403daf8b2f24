package core

import "github.com/valter-silva-au/dayflow/pkg/models"

// The store interfaces below are implemented by the storage package. They
// are defined locally in core to avoid importing storage. Every Load returns
// a complete snapshot and every Save replaces the whole record.

// TaskStore persists the task collection together with its id counter.
type TaskStore interface {
	LoadTasks() (*models.TaskList, error)
	SaveTasks(list *models.TaskList) error
}

// StateStore persists the weekly transition state. LoadState wraps
// models.ErrNotFound when no state has been saved yet.
type StateStore interface {
	LoadState() (*models.WeeklyState, error)
	SaveState(state *models.WeeklyState) error
}

// PlanStore persists one plan per date. LoadPlan wraps models.ErrNotFound
// when no plan exists for the date.
type PlanStore interface {
	LoadPlan(date string) (*models.Plan, error)
	SavePlan(plan *models.Plan) error
	ListPlanDates() ([]string, error)
}

// WorkLogStore is the append-only record of logged work.
type WorkLogStore interface {
	Append(entry models.WorkLogEntry) error
	Read(filter models.WorkLogFilter) ([]models.WorkLogEntry, error)
}
