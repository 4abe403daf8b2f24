package core

import (
	"testing"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

func preemptTasks(tasks ...models.Task) []*models.Task {
	out := make([]*models.Task, len(tasks))
	for i := range tasks {
		out[i] = &tasks[i]
	}
	return out
}

func defaultPreemptOptions() PreemptOptions {
	return PreemptOptions{
		Weights:          ScoreWeights{Beta: 0.3, Gamma: 0.6},
		UrgentThreshold:  3.5,
		SupportThreshold: 4.5,
		AllowSupport:     true,
		SupportBudget:    1,
	}
}

func TestSelectPreempt_Urgent(t *testing.T) {
	tasks := preemptTasks(
		testTask("feature", "Feature", 5, 5, 1),
		testTask("outage", "Urgent", 5, 5, 1),
	)
	got := SelectPreempt(tasks, defaultPreemptOptions())
	if got == nil || got.Title != "outage" {
		t.Fatalf("expected the urgent task, got %+v", got)
	}
}

func TestSelectPreempt_BelowThreshold(t *testing.T) {
	// (1+1)/1 = 2 < 3.5
	tasks := preemptTasks(testTask("minor", "Urgent", 1, 1, 1))
	if got := SelectPreempt(tasks, defaultPreemptOptions()); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSelectPreempt_SkipsDone(t *testing.T) {
	done := testTask("done", "Urgent", 5, 5, 1)
	done.Status = models.StatusDone
	if got := SelectPreempt(preemptTasks(done), defaultPreemptOptions()); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSelectPreempt_SupportBudget(t *testing.T) {
	tasks := preemptTasks(testTask("ticket", "Support", 5, 5, 1))

	opts := defaultPreemptOptions()
	if got := SelectPreempt(tasks, opts); got == nil {
		t.Fatal("expected the support task with budget available")
	}

	opts.UsedSupport = 1
	if got := SelectPreempt(tasks, opts); got != nil {
		t.Fatal("expected nil with the budget exhausted")
	}

	opts = defaultPreemptOptions()
	opts.AllowSupport = false
	if got := SelectPreempt(tasks, opts); got != nil {
		t.Fatal("expected nil with support preemption disabled")
	}
}

func TestSelectPreempt_HighestScoreAndTies(t *testing.T) {
	tasks := preemptTasks(
		testTask("first", "Urgent", 4, 4, 1),
		testTask("second", "Urgent", 4, 4, 1),
		testTask("third", "Urgent", 5, 4, 1),
		testTask("fourth", "Urgent", 5, 4, 1),
	)
	got := SelectPreempt(tasks, defaultPreemptOptions())
	if got == nil || got.Title != "third" {
		t.Fatalf("expected third, got %+v", got)
	}

	got = SelectPreempt(tasks[:2], defaultPreemptOptions())
	if got == nil || got.Title != "first" {
		t.Fatalf("expected first on a tie, got %+v", got)
	}
}

func TestSelectPreempt_Empty(t *testing.T) {
	if got := SelectPreempt(nil, defaultPreemptOptions()); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}
