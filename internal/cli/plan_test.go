package cli

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/internal/storage"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

func withPlanDate(t *testing.T, date string) {
	t.Helper()
	orig := planDate
	planDate = date
	t.Cleanup(func() { planDate = orig })
}

func TestPlanGenerateCmd_NilService(t *testing.T) {
	orig := PlanSvc
	defer func() { PlanSvc = orig }()
	PlanSvc = nil

	if err := planGenerateCmd.RunE(planGenerateCmd, nil); err == nil {
		t.Fatal("expected error when PlanSvc is nil")
	}
}

func TestPlanGenerateCmd_WritesPlan(t *testing.T) {
	cfg := setupPlanner(t)
	withPlanDate(t, testDate)
	addTestTask(t, "Ship login page", "Feature", 3, 4)
	addTestTask(t, "Fix crash", "Bug", 3, 3)

	var err error
	out := captureStdout(t, func() {
		err = planGenerateCmd.RunE(planGenerateCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Started a new week on " + testDate, "Plan for " + testDate, "Deep Work", "carried over"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	plan, err := PlanSvc.GetPlan(testDate)
	if err != nil {
		t.Fatalf("plan was not saved: %v", err)
	}
	if len(plan.Blocks) != cfg.BlocksPerDay {
		t.Errorf("plan has %d blocks, want %d", len(plan.Blocks), cfg.BlocksPerDay)
	}

	// A second run continues the same week.
	out = captureStdout(t, func() {
		err = planGenerateCmd.RunE(planGenerateCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "Started a new week") {
		t.Errorf("regeneration should reuse the weekly state:\n%s", out)
	}
}

func TestPlanGenerateCmd_KeepsDoneBlocks(t *testing.T) {
	setupPlanner(t)
	withPlanDate(t, testDate)
	addTestTask(t, "Ship login page", "Feature", 3, 4)

	captureStdout(t, func() {
		if err := planGenerateCmd.RunE(planGenerateCmd, nil); err != nil {
			t.Fatal(err)
		}
	})
	first, err := PlanSvc.GetPlan(testDate)
	if err != nil {
		t.Fatal(err)
	}
	block := 1
	if _, err := WorkLogger.Log(core.LogRequest{Date: testDate, Block: &block}); err != nil {
		t.Fatal(err)
	}

	captureStdout(t, func() {
		if err := planGenerateCmd.RunE(planGenerateCmd, nil); err != nil {
			t.Fatal(err)
		}
	})
	second, err := PlanSvc.GetPlan(testDate)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Blocks[0].Completed() {
		t.Fatal("done block was not preserved")
	}
	if second.Blocks[0].Title != first.Blocks[0].Title || second.Blocks[0].Bucket != first.Blocks[0].Bucket {
		t.Errorf("done block changed: %+v -> %+v", first.Blocks[0], second.Blocks[0])
	}
}

func TestPlanGenerateCmd_ConfigMismatch(t *testing.T) {
	setupPlanner(t)
	withPlanDate(t, testDate)

	dir := t.TempDir()
	cfg := core.DefaultPlannerConfig()
	cfg.BlocksPerDay = 3
	PlanSvc = core.NewPlanService(cfg, storage.NewTaskStore(dir), storage.NewStateStore(dir), storage.NewPlanStore(dir),
		rand.New(rand.NewPCG(1, 2)), nil, nil)

	err := planGenerateCmd.RunE(planGenerateCmd, nil)
	if err == nil {
		t.Fatal("expected configuration mismatch")
	}
	if !errors.Is(err, models.ErrConfigMismatch) {
		t.Errorf("error should wrap ErrConfigMismatch: %v", err)
	}
	if !strings.Contains(err.Error(), core.ConfigFileName) {
		t.Errorf("error should point at %s: %v", core.ConfigFileName, err)
	}
}

func TestPlanShowCmd_NotFound(t *testing.T) {
	setupPlanner(t)
	withPlanDate(t, "2026-10-13")

	err := planShowCmd.RunE(planShowCmd, nil)
	if err == nil {
		t.Fatal("expected error for missing plan")
	}
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("error should wrap ErrNotFound: %v", err)
	}
	if !strings.Contains(err.Error(), "dayflow plan generate") {
		t.Errorf("error should suggest generating a plan: %v", err)
	}
}

func TestPlanShowCmd_TextAndJSON(t *testing.T) {
	setupPlanner(t)
	withPlanDate(t, testDate)
	origJSON := planShowJSON
	defer func() { planShowJSON = origJSON }()

	if _, err := PlanSvc.GeneratePlan(testDate); err != nil {
		t.Fatal(err)
	}

	planShowJSON = false
	var err error
	out := captureStdout(t, func() {
		err = planShowCmd.RunE(planShowCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Plan for "+testDate+" (0/5 done)") {
		t.Errorf("unexpected header:\n%s", out)
	}
	// No tasks: every block is a placeholder.
	if !strings.Contains(out, "No tasks available") {
		t.Errorf("expected placeholder blocks:\n%s", out)
	}

	planShowJSON = true
	out = captureStdout(t, func() {
		err = planShowCmd.RunE(planShowCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var plan models.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if plan.Date != testDate || len(plan.Blocks) != 5 {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestRenderPlan(t *testing.T) {
	plan := &models.Plan{
		Date: testDate,
		Blocks: []models.Block{
			{Block: 1, Bucket: "Feature", Title: "Ship login page", ExpectedScore: 2.5, Status: models.BlockDone},
			{Block: 2, Bucket: "Bug", Title: "Fix crash", ExpectedScore: 1.75, Status: models.BlockPlanned},
		},
	}
	focus, err := core.NewFocusPolicy(2, map[int]models.SlotConfig{
		1: {Name: "Morning", DurationHours: 1},
		2: {Name: "Afternoon", DurationHours: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := renderPlan(plan, focus)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Morning") || !strings.Contains(lines[0], "[x]") || !strings.Contains(lines[0], "2.50") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Afternoon") || !strings.Contains(lines[1], "[ ]") || !strings.Contains(lines[1], "Fix crash") {
		t.Errorf("line 2 = %q", lines[1])
	}

	// Without a slot table the lines still render.
	if out := renderPlan(plan, nil); !strings.Contains(out, "Ship login page") {
		t.Errorf("render without focus = %q", out)
	}
}

func TestPrintQualityFeedback(t *testing.T) {
	out := captureStdout(t, func() {
		printQualityFeedback(nil, "")
	})
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}

	out = captureStdout(t, func() {
		printQualityFeedback([]string{"Feature below minimum"}, "Schedule more Feature work")
	})
	if !strings.Contains(out, "Feature below minimum") || !strings.Contains(out, "Tip: Schedule more Feature work") {
		t.Errorf("unexpected output: %q", out)
	}
}
