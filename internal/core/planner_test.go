package core

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

func withIDs(tasks ...models.Task) []models.Task {
	for i := range tasks {
		tasks[i].ID = i + 1
	}
	return tasks
}

func TestGenerate_UrgentPreemptsWithoutDrawing(t *testing.T) {
	cfg := slotConfig(1)
	rng := &scriptedRand{}
	gen := NewPlanGenerator(cfg, rng, nil)

	res, err := gen.Generate(PlanRequest{
		Date:  "2025-03-03",
		Tasks: withIDs(testTask("Restore prod", "Urgent", 5, 5, 1)),
		State: NewWeeklyState("2025-03-03"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rng.calls != 0 || res.Draws != 0 {
		t.Errorf("expected no draws, got rng=%d result=%d", rng.calls, res.Draws)
	}
	if len(res.Plan.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(res.Plan.Blocks))
	}
	b := res.Plan.Blocks[0]
	if b.Bucket != "Urgent" || !strings.Contains(b.Title, "Restore prod") {
		t.Errorf("block = %+v", b)
	}
	if b.ExpectedScore != 10 || b.TaskID != 1 || b.Status != models.BlockPlanned {
		t.Errorf("block = %+v", b)
	}
	if res.Preempted != 1 {
		t.Errorf("preempted = %d, want 1", res.Preempted)
	}
}

func TestGenerate_NoTasksYieldsPlaceholders(t *testing.T) {
	cfg := slotConfig(4)
	state := NewWeeklyState("2025-03-03")
	RecordTransition(state, models.BucketBug)
	RecordTransition(state, models.BucketDocs)
	rng := &constRand{value: 0.42}

	res, err := NewPlanGenerator(cfg, rng, nil).Generate(PlanRequest{Date: "2025-03-04", State: state})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Plan.Blocks) != 4 || res.Placeholders != 4 {
		t.Fatalf("expected 4 placeholders, got %+v", res)
	}
	for i, b := range res.Plan.Blocks {
		if b.Block != i+1 {
			t.Errorf("block number = %d, want %d", b.Block, i+1)
		}
		if b.ExpectedScore != 0 || !strings.HasSuffix(b.Title, "No tasks available") {
			t.Errorf("block %d = %+v", i+1, b)
		}
		if _, err := models.ParseBucket(b.Bucket); err != nil {
			t.Errorf("placeholder bucket %q is not a planning bucket", b.Bucket)
		}
	}
	if res.Draws != 4 || rng.calls != 4 {
		t.Errorf("draws = %d, rng calls = %d, want 4", res.Draws, rng.calls)
	}
}

func TestGenerate_ConfigMismatchProducesNothing(t *testing.T) {
	cfg := slotConfig(2)
	cfg.BlocksPerDay = 3
	res, err := NewPlanGenerator(cfg, &scriptedRand{}, nil).Generate(PlanRequest{
		Date:  "2025-03-03",
		Tasks: withIDs(testTask("a", "Feature", 1, 1, 1)),
		State: NewWeeklyState("2025-03-03"),
	})
	if !errors.Is(err, models.ErrConfigMismatch) {
		t.Fatalf("expected ErrConfigMismatch, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	gen := NewPlanGenerator(slotConfig(1), &constRand{}, nil)
	if _, err := gen.Generate(PlanRequest{Date: "2025-03-03"}); err == nil {
		t.Error("expected an error without state")
	}
	if _, err := gen.Generate(PlanRequest{Date: "03/03/2025", State: NewWeeklyState("")}); err == nil {
		t.Error("expected an error for a bad date")
	}
}

func TestGenerate_SampledAndFallback(t *testing.T) {
	// u = 0 always draws Feature, the first bucket.
	cfg := slotConfig(3)
	tasks := withIDs(
		testTask("feature low", "Feature", 1, 1, 2),
		testTask("feature high", "Feature", 4, 4, 2),
		testTask("bug", "Bug", 2, 2, 1),
	)
	res, err := NewPlanGenerator(cfg, &constRand{value: 0}, nil).Generate(PlanRequest{
		Date:  "2025-03-03",
		Tasks: tasks,
		State: NewWeeklyState("2025-03-03"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []int{res.Plan.Blocks[0].TaskID, res.Plan.Blocks[1].TaskID, res.Plan.Blocks[2].TaskID}
	want := []int{2, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d task = %d, want %d", i+1, got[i], want[i])
		}
	}
	if res.Sampled != 3 || res.Fallbacks != 1 {
		t.Errorf("sampled = %d fallbacks = %d, want 3 and 1", res.Sampled, res.Fallbacks)
	}
	if res.Plan.Blocks[0].Title != "Slot 1: feature high" {
		t.Errorf("title = %q", res.Plan.Blocks[0].Title)
	}
}

func TestGenerate_SkipsDoneTasks(t *testing.T) {
	done := testTask("shipped", "Feature", 5, 5, 1)
	done.Status = models.StatusDone
	res, err := NewPlanGenerator(slotConfig(1), &constRand{value: 0}, nil).Generate(PlanRequest{
		Date:  "2025-03-03",
		Tasks: withIDs(done),
		State: NewWeeklyState("2025-03-03"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Placeholders != 1 {
		t.Errorf("expected a placeholder, got %+v", res.Plan.Blocks)
	}
}

func TestGenerate_CarriesOverDoneBlocks(t *testing.T) {
	cfg := slotConfig(2)
	tasks := withIDs(
		testTask("first", "Feature", 5, 5, 1),
		testTask("second", "Feature", 1, 1, 1),
	)
	existing := &models.Plan{Date: "2025-03-03", Blocks: []models.Block{
		{Block: 1, Bucket: "Feature", Title: "Slot 1: first", Status: models.BlockDone, TaskID: 1},
		{Block: 2, Bucket: "Feature", Title: "Slot 2: second", Status: models.BlockPlanned, TaskID: 2},
	}}

	res, err := NewPlanGenerator(cfg, &constRand{value: 0}, nil).Generate(PlanRequest{
		Date:     "2025-03-03",
		Tasks:    tasks,
		State:    NewWeeklyState("2025-03-03"),
		Existing: existing,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CarriedOver != 1 {
		t.Errorf("carried over = %d, want 1", res.CarriedOver)
	}
	if res.Plan.Blocks[0] != existing.Blocks[0] {
		t.Errorf("done block changed: %+v", res.Plan.Blocks[0])
	}
	if res.Plan.Blocks[1].TaskID != 2 {
		t.Errorf("slot 2 task = %d, want 2", res.Plan.Blocks[1].TaskID)
	}
}

func TestGenerate_CarriedOverMatchesByTitle(t *testing.T) {
	cfg := slotConfig(2)
	tasks := withIDs(
		testTask("first", "Feature", 5, 5, 1),
		testTask("second", "Feature", 1, 1, 1),
	)
	existing := &models.Plan{Date: "2025-03-03", Blocks: []models.Block{
		{Block: 1, Bucket: "Feature", Title: "first", Status: models.BlockDone},
	}}
	res, err := NewPlanGenerator(cfg, &constRand{value: 0}, nil).Generate(PlanRequest{
		Date: "2025-03-03", Tasks: tasks, State: NewWeeklyState("2025-03-03"), Existing: existing,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Plan.Blocks[1].TaskID != 2 {
		t.Errorf("slot 2 task = %d, want 2", res.Plan.Blocks[1].TaskID)
	}
}

func TestGenerate_CarriedSupportCountsAgainstBudget(t *testing.T) {
	cfg := slotConfig(2)
	existing := &models.Plan{Date: "2025-03-03", Blocks: []models.Block{
		{Block: 1, Bucket: "Support", Title: "Slot 1: pager", Status: models.BlockDone},
	}}
	res, err := NewPlanGenerator(cfg, &constRand{value: 0}, nil).Generate(PlanRequest{
		Date:     "2025-03-03",
		Tasks:    withIDs(testTask("customer ticket", "Support", 5, 5, 1)),
		State:    NewWeeklyState("2025-03-03"),
		Existing: existing,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Preempted != 0 {
		t.Errorf("support preempted despite an exhausted budget")
	}
	if res.Draws != 1 || res.Plan.Blocks[1].TaskID != 1 {
		t.Errorf("expected the ticket via sampling, got %+v", res.Plan.Blocks[1])
	}
}

// Whatever the tasks and the random stream, no task fills two slots and the
// plan has exactly blocks_per_day blocks numbered 1..n.
func TestProperty_SingleAssignment(t *testing.T) {
	buckets := []string{"Feature", "Bug", "R&D", "Docs", "Review", "Support", "Urgent", "Meetings"}
	rapid.Check(t, func(rt *rapid.T) {
		slots := rapid.IntRange(1, 8).Draw(rt, "slots")
		n := rapid.IntRange(0, 12).Draw(rt, "tasks")
		tasks := make([]models.Task, n)
		for i := range tasks {
			tasks[i] = models.Task{
				ID:      i + 1,
				Title:   "task",
				Bucket:  rapid.SampledFrom(buckets).Draw(rt, "bucket"),
				Urgency: rapid.IntRange(0, 5).Draw(rt, "urgency"),
				Impact:  rapid.IntRange(1, 5).Draw(rt, "impact"),
				Size:    rapid.Float64Range(0.5, 8).Draw(rt, "size"),
				Status:  models.StatusTodo,
			}
		}
		seed := rapid.Uint64().Draw(rt, "seed")
		rng := rand.New(rand.NewPCG(seed, 0))

		res, err := NewPlanGenerator(slotConfig(slots), rng, nil).Generate(PlanRequest{
			Date:  "2025-03-03",
			Tasks: tasks,
			State: NewWeeklyState("2025-03-03"),
		})
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if len(res.Plan.Blocks) != slots {
			rt.Fatalf("blocks = %d, want %d", len(res.Plan.Blocks), slots)
		}
		seen := map[int]bool{}
		for i, b := range res.Plan.Blocks {
			if b.Block != i+1 {
				rt.Fatalf("block %d numbered %d", i+1, b.Block)
			}
			if b.TaskID == 0 {
				continue
			}
			if seen[b.TaskID] {
				rt.Fatalf("task %d assigned twice", b.TaskID)
			}
			seen[b.TaskID] = true
		}
		if res.Preempted+res.Sampled+res.Placeholders != slots {
			rt.Fatalf("counts do not add up: %+v", res)
		}
		if err := res.Plan.Validate(); err != nil {
			rt.Fatalf("invalid plan: %v", err)
		}
	})
}
