package models

import (
	"errors"
	"strings"
	"testing"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask("Ship login page", "Feature", 3, 4, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Status != StatusTodo || task.HasDeadline() || task.Done() {
		t.Errorf("unexpected defaults: %+v", task)
	}
	if task.PlanningBucket() != BucketFeature {
		t.Errorf("planning bucket = %v", task.PlanningBucket())
	}

	meeting, err := NewTask("Standup", "Meetings", 1, 1, 0.5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meeting.PlanningBucket() != BucketChaos {
		t.Errorf("free-form bucket should plan as Chaos, got %v", meeting.PlanningBucket())
	}
}

func TestTask_ValidateReportsEveryProblem(t *testing.T) {
	task := Task{Title: " ", Bucket: "", Urgency: 6, Impact: 0, Size: 0, Difficulty: -1,
		Status: "blocked", SLAPenalty: -1, AgeDays: -2, PlannedDate: "tomorrow"}

	err := task.Validate()
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("Validate() = %v, want ErrInvalidTask", err)
	}
	for _, want := range []string{"title", "bucket", "urgency 6", "impact 0", "size 0", "difficulty -1", "status", "sla_penalty", "age_days", "planned_date"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q: %v", want, err)
		}
	}
}

func TestTask_PastDueStillHasDeadline(t *testing.T) {
	d := -3
	task := Task{DeadlineDays: &d}
	if !task.HasDeadline() {
		t.Error("a negative deadline still counts as a deadline")
	}
}

func TestTaskStatus(t *testing.T) {
	for _, s := range ValidTaskStatuses {
		got, err := ParseTaskStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseTaskStatus(%q) = %q, %v", s, got, err)
		}
		if s.Plannable() == (s == StatusDone) {
			t.Errorf("%q: Plannable() = %v", s, s.Plannable())
		}
	}
	if _, err := ParseTaskStatus("DONE"); err == nil {
		t.Error("status parsing is case-sensitive")
	}
}

func TestParseTaskSize(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "XS", want: 0.5},
		{in: "s", want: 1},
		{in: " M ", want: 2},
		{in: "L", want: 4},
		{in: "xl", want: 8},
		{in: "1.5", want: 1.5},
		{in: "0", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "XXL", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTaskSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTaskSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseTaskSize(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTaskList_IDsNeverReused(t *testing.T) {
	l := &TaskList{}
	a := l.Add(Task{Title: "a"})
	b := l.Add(Task{Title: "b"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d", a.ID, b.ID)
	}

	if _, err := l.Remove(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c := l.Add(Task{Title: "c"}); c.ID != 3 {
		t.Errorf("id after removal = %d, want 3", c.ID)
	}
	if _, err := l.Remove(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing twice = %v, want ErrNotFound", err)
	}
	if _, err := l.Find(1); err != nil {
		t.Errorf("Find(1) = %v", err)
	}
}

func TestTaskList_AddRepairsStaleCounter(t *testing.T) {
	l := &TaskList{NextID: 2, Tasks: []Task{{ID: 5, Title: "imported"}}}
	if got := l.Add(Task{Title: "new"}); got.ID != 6 {
		t.Errorf("id = %d, want 6", got.ID)
	}
}
