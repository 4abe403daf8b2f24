package core

import (
	"fmt"
	"sort"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// memTaskStore implements TaskStore for testing. Loads hand out copies so
// nothing is visible until SaveTasks.
type memTaskStore struct {
	list  models.TaskList
	saves int
}

func newMemTaskStore(tasks ...models.Task) *memTaskStore {
	s := &memTaskStore{list: models.TaskList{NextID: 1}}
	for _, t := range tasks {
		s.list.Add(t)
	}
	return s
}

func (s *memTaskStore) LoadTasks() (*models.TaskList, error) {
	out := models.TaskList{NextID: s.list.NextID, Tasks: append([]models.Task(nil), s.list.Tasks...)}
	return &out, nil
}

func (s *memTaskStore) SaveTasks(list *models.TaskList) error {
	s.list = models.TaskList{NextID: list.NextID, Tasks: append([]models.Task(nil), list.Tasks...)}
	s.saves++
	return nil
}

// memStateStore implements StateStore for testing.
type memStateStore struct {
	state *models.WeeklyState
	saves int
}

func (s *memStateStore) LoadState() (*models.WeeklyState, error) {
	if s.state == nil {
		return nil, fmt.Errorf("weekly state: %w", models.ErrNotFound)
	}
	out := *s.state
	return &out, nil
}

func (s *memStateStore) SaveState(state *models.WeeklyState) error {
	cp := *state
	s.state = &cp
	s.saves++
	return nil
}

// memPlanStore implements PlanStore for testing.
type memPlanStore struct {
	plans map[string]models.Plan
}

func newMemPlanStore(plans ...models.Plan) *memPlanStore {
	s := &memPlanStore{plans: make(map[string]models.Plan)}
	for _, p := range plans {
		s.plans[p.Date] = copyPlan(p)
	}
	return s
}

func copyPlan(p models.Plan) models.Plan {
	return models.Plan{Date: p.Date, Blocks: append([]models.Block(nil), p.Blocks...)}
}

func (s *memPlanStore) LoadPlan(date string) (*models.Plan, error) {
	p, ok := s.plans[date]
	if !ok {
		return nil, fmt.Errorf("plan %s: %w", date, models.ErrNotFound)
	}
	out := copyPlan(p)
	return &out, nil
}

func (s *memPlanStore) SavePlan(plan *models.Plan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	s.plans[plan.Date] = copyPlan(*plan)
	return nil
}

func (s *memPlanStore) ListPlanDates() ([]string, error) {
	dates := make([]string, 0, len(s.plans))
	for d := range s.plans {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

// memWorkLog implements WorkLogStore for testing.
type memWorkLog struct {
	entries []models.WorkLogEntry
}

func (l *memWorkLog) Append(entry models.WorkLogEntry) error {
	l.entries = append(l.entries, entry)
	return nil
}

func (l *memWorkLog) Read(filter models.WorkLogFilter) ([]models.WorkLogEntry, error) {
	var out []models.WorkLogEntry
	for _, e := range l.entries {
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// recordingEventLogger captures emitted events.
type recordingEventLogger struct {
	events []recordedEvent
}

type recordedEvent struct {
	Type string
	Data map[string]any
}

func (r *recordingEventLogger) LogEvent(eventType string, data map[string]any) error {
	r.events = append(r.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

func (r *recordingEventLogger) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// scriptedRand returns the scripted values in order and counts the draws.
// It panics when the script runs out.
type scriptedRand struct {
	values []float64
	calls  int
}

func (r *scriptedRand) Float64() float64 {
	v := r.values[r.calls]
	r.calls++
	return v
}

// constRand always returns the same value.
type constRand struct {
	value float64
	calls int
}

func (r *constRand) Float64() float64 {
	r.calls++
	return r.value
}

func intPtr(n int) *int { return &n }

func testTask(title, bucket string, urgency, impact int, size float64) models.Task {
	return models.Task{
		Title:   title,
		Bucket:  bucket,
		Urgency: urgency,
		Impact:  impact,
		Size:    size,
		Status:  models.StatusTodo,
	}
}

// slotConfig is the default config reduced to n generic slots with no
// focus preferences.
func slotConfig(n int) *models.PlannerConfig {
	cfg := DefaultPlannerConfig()
	cfg.BlocksPerDay = n
	cfg.Slots = make(map[int]models.SlotConfig, n)
	for i := 1; i <= n; i++ {
		cfg.Slots[i] = models.SlotConfig{Name: fmt.Sprintf("Slot %d", i), DurationHours: 1}
	}
	return cfg
}
