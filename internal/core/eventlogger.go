package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Event types written by core services.
const (
	EventPlanGenerated      = "plan.generated"
	EventBlockLogged        = "block.logged"
	EventTaskLogged         = "task.logged"
	EventWeekReset          = "week.reset"
	EventTransitionsDecayed = "transitions.decayed"
	EventTaskCreated        = "task.created"
	EventTaskStatusChanged  = "task.status_changed"
	EventTaskRemoved        = "task.removed"
)

// emit writes an event if a logger is configured. Event log failures never
// fail the operation that produced them.
func emit(l EventLogger, eventType string, data map[string]any) {
	if l != nil {
		_ = l.LogEvent(eventType, data)
	}
}
