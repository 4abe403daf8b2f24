package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventLogFileName is the event log inside the data directory.
const EventLogFileName = ".dayflow_events.jsonl"

// Event is one recorded change to dayflow's data.
type Event struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // e.g. "plan.generated", "block.logged"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EventFilter specifies criteria for reading events. Types matches any of
// the listed event types.
type EventFilter struct {
	Since *time.Time
	Until *time.Time
	Types []string
	Level string
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog opens (creating if needed) the JSONL event log at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

// Write appends one event. Missing id, time and level are filled in.
func (l *jsonlEventLog) Write(event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	if event.Level == "" {
		event.Level = "INFO"
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read returns the events matching filter in write order. Malformed lines
// are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if filter.matches(event) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func (f EventFilter) matches(event Event) bool {
	if f.Since != nil && event.Time.Before(*f.Since) {
		return false
	}
	if f.Until != nil && event.Time.After(*f.Until) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Level != "" && event.Level != f.Level {
		return false
	}
	return true
}

// Recorder adapts an EventLog to the LogEvent method used by the planning
// services.
type Recorder struct {
	Log EventLog
}

// LogEvent writes an INFO event whose message is a readable form of the type.
func (r *Recorder) LogEvent(eventType string, data map[string]any) error {
	return r.Log.Write(Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: describeEvent(eventType, data),
		Data:    data,
	})
}

func describeEvent(eventType string, data map[string]any) string {
	switch eventType {
	case "plan.generated":
		return fmt.Sprintf("plan generated for %v", data["date"])
	case "block.logged":
		return fmt.Sprintf("block %v logged as %v", data["block"], data["bucket"])
	case "task.logged":
		return fmt.Sprintf("task %v logged as %v", data["task_id"], data["bucket"])
	case "week.reset":
		return fmt.Sprintf("week reset to %v", data["week_start"])
	case "transitions.decayed":
		return fmt.Sprintf("transitions decayed by %v", data["factor"])
	case "task.created":
		return fmt.Sprintf("task %v created", data["task_id"])
	case "task.status_changed":
		return fmt.Sprintf("task %v moved to %v", data["task_id"], data["new_status"])
	case "task.removed":
		return fmt.Sprintf("task %v removed", data["task_id"])
	default:
		return eventType
	}
}
