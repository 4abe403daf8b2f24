package observability

import (
	"fmt"
	"time"
)

// Metrics holds planning activity derived from the event log.
type Metrics struct {
	PlansGenerated  int            `json:"plans_generated"`
	BlocksPlanned   int            `json:"blocks_planned"`
	BlocksPreempted int            `json:"blocks_preempted"`
	Placeholders    int            `json:"placeholders"`
	Fallbacks       int            `json:"fallbacks"`
	BlocksLogged    int            `json:"blocks_logged"`
	TasksLogged     int            `json:"tasks_logged"`
	LoggedByBucket  map[string]int `json:"logged_by_bucket"`
	TasksCreated    int            `json:"tasks_created"`
	TasksCompleted  int            `json:"tasks_completed"`
	TasksRemoved    int            `json:"tasks_removed"`
	WeekResets      int            `json:"week_resets"`
	Decays          int            `json:"decays"`
	EventCount      int            `json:"event_count"`
	OldestEvent     *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time     `json:"newest_event,omitempty"`
}

// CompletionRate is logged blocks over planned blocks, 0 when nothing was
// planned.
func (m *Metrics) CompletionRate() float64 {
	if m.BlocksPlanned == 0 {
		return 0
	}
	return float64(m.BlocksLogged) / float64(m.BlocksPlanned)
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{LoggedByBucket: make(map[string]int)}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "plan.generated":
			m.PlansGenerated++
			m.BlocksPlanned += intField(event.Data, "blocks") - intField(event.Data, "carried_over")
			m.BlocksPreempted += intField(event.Data, "preempted")
			m.Placeholders += intField(event.Data, "placeholders")
			m.Fallbacks += intField(event.Data, "fallbacks")
		case "block.logged":
			m.BlocksLogged++
			if b, ok := event.Data["planning_bucket"].(string); ok {
				m.LoggedByBucket[b]++
			}
		case "task.logged":
			m.TasksLogged++
			if b, ok := event.Data["planning_bucket"].(string); ok {
				m.LoggedByBucket[b]++
			}
		case "task.created":
			m.TasksCreated++
		case "task.status_changed":
			if status, ok := event.Data["new_status"].(string); ok && status == "done" {
				m.TasksCompleted++
			}
		case "task.removed":
			m.TasksRemoved++
		case "week.reset":
			m.WeekResets++
		case "transitions.decayed":
			m.Decays++
		}
	}

	return m, nil
}

// intField reads a count from event data. Values read back from JSON are
// float64; values from a live map may be int.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
