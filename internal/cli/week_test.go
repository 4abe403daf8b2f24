package cli

import (
	"strings"
	"testing"
)

func TestWeekResetCmd(t *testing.T) {
	setupPlanner(t)
	resetFlags(t, weekResetCmd)
	logOneBlock(t)
	setFlag(t, weekResetCmd, "start", "2026-10-19")

	var err error
	out := captureStdout(t, func() {
		err = weekResetCmd.RunE(weekResetCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Week reset, starting 2026-10-19") {
		t.Errorf("unexpected output: %q", out)
	}

	state, err := Maintenance.CurrentState()
	if err != nil {
		t.Fatal(err)
	}
	if state.WeeklyBlocks.Total() != 0 || state.WeekStart != "2026-10-19" {
		t.Errorf("state not reset: %+v", state)
	}
}

func TestWeekResetCmd_InvalidStart(t *testing.T) {
	setupPlanner(t)
	resetFlags(t, weekResetCmd)
	setFlag(t, weekResetCmd, "start", "next monday")

	if err := weekResetCmd.RunE(weekResetCmd, nil); err == nil {
		t.Fatal("expected error for invalid start date")
	}
}

func TestWeekDecayCmd_DefaultsToConfig(t *testing.T) {
	cfg := setupPlanner(t)
	resetFlags(t, weekDecayCmd)
	cfg.WeeklyDecay = 0.5
	if _, err := Maintenance.ResetWeek(testDate); err != nil {
		t.Fatal(err)
	}

	var err error
	out := captureStdout(t, func() {
		err = weekDecayCmd.RunE(weekDecayCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "decayed by 0.5 for the week of "+testDate) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestWeekDecayCmd_ExplicitFactor(t *testing.T) {
	setupPlanner(t)
	resetFlags(t, weekDecayCmd)
	if _, err := Maintenance.ResetWeek(testDate); err != nil {
		t.Fatal(err)
	}
	setFlag(t, weekDecayCmd, "factor", "0.9")

	var err error
	out := captureStdout(t, func() {
		err = weekDecayCmd.RunE(weekDecayCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "decayed by 0.9") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestWeekDecayCmd_Errors(t *testing.T) {
	setupPlanner(t)
	resetFlags(t, weekDecayCmd)

	if err := weekDecayCmd.RunE(weekDecayCmd, nil); err == nil {
		t.Error("expected error without a saved weekly state")
	}

	if _, err := Maintenance.ResetWeek(testDate); err != nil {
		t.Fatal(err)
	}
	setFlag(t, weekDecayCmd, "factor", "1.5")
	if err := weekDecayCmd.RunE(weekDecayCmd, nil); err == nil {
		t.Error("expected error for factor outside (0, 1)")
	}
}

func TestWeekShowCmd(t *testing.T) {
	setupPlanner(t)
	logOneBlock(t)

	var err error
	out := captureStdout(t, func() {
		err = weekShowCmd.RunE(weekShowCmd, nil)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Week of "+testDate) || !strings.Contains(out, "Total: 1") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
