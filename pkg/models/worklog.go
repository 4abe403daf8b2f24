package models

import "time"

// WorkLogEntry is one append-only record of logged work.
type WorkLogEntry struct {
	Date         string    `yaml:"date" json:"date"`
	Block        *int      `yaml:"block,omitempty" json:"block,omitempty"`
	TaskID       *int      `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	ActualBucket string    `yaml:"actual_bucket" json:"actual_bucket"`
	ActualTitle  string    `yaml:"actual_title" json:"actual_title"`
	Notes        string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	LoggedAt     time.Time `yaml:"logged_at" json:"logged_at"`
}

// WorkLogFilter restricts which work-log entries are read.
type WorkLogFilter struct {
	Since string // inclusive YYYY-MM-DD; empty means no lower bound
	Until string // inclusive YYYY-MM-DD; empty means no upper bound
}

// Matches reports whether the entry's date falls inside the filter range.
func (f WorkLogFilter) Matches(e WorkLogEntry) bool {
	if f.Since != "" && e.Date < f.Since {
		return false
	}
	if f.Until != "" && e.Date > f.Until {
		return false
	}
	return true
}
