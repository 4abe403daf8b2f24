package cli

import (
	"io"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/internal/observability"
	"github.com/valter-silva-au/dayflow/internal/storage"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

const testDate = "2026-10-12"

// captureStdout redirects os.Stdout during fn and returns what was written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// setupPlanner wires real services over a temporary data directory into the
// package variables and restores the previous values when the test ends.
func setupPlanner(t *testing.T) *models.PlannerConfig {
	t.Helper()

	origBasePath, origConfig, origConfigErr, origConfigMgr := BasePath, Config, ConfigErr, ConfigMgr
	origTaskMgr, origPlanSvc, origWorkLogger := TaskMgr, PlanSvc, WorkLogger
	origMaintenance, origReporter := Maintenance, Reporter
	origEventLog, origAlertEngine, origMetricsCalc, origNotifier := EventLog, AlertEngine, MetricsCalc, Notifier
	origNow := now
	t.Cleanup(func() {
		BasePath, Config, ConfigErr, ConfigMgr = origBasePath, origConfig, origConfigErr, origConfigMgr
		TaskMgr, PlanSvc, WorkLogger = origTaskMgr, origPlanSvc, origWorkLogger
		Maintenance, Reporter = origMaintenance, origReporter
		EventLog, AlertEngine, MetricsCalc, Notifier = origEventLog, origAlertEngine, origMetricsCalc, origNotifier
		now = origNow
	})

	dir := t.TempDir()
	cfg := core.DefaultPlannerConfig()
	tasks := storage.NewTaskStore(dir)
	states := storage.NewStateStore(dir)
	plans := storage.NewPlanStore(dir)
	worklog := storage.NewJSONLWorkLog(dir)
	t.Cleanup(func() { _ = worklog.Close() })

	rng := rand.New(rand.NewPCG(1, 2))
	BasePath = dir
	Config = cfg
	ConfigErr = nil
	ConfigMgr = core.NewConfigurationManager(dir)
	TaskMgr = core.NewTaskManager(tasks, core.ScoreWeights{Beta: cfg.Beta, Gamma: cfg.Gamma}, nil, nil)
	PlanSvc = core.NewPlanService(cfg, tasks, states, plans, rng, nil, nil)
	WorkLogger = core.NewWorkLogger(tasks, states, plans, worklog, nil, nil)
	Maintenance = core.NewWeeklyMaintenance(states, cfg.Laplace, nil, nil)
	Reporter = core.NewReporter(cfg, states, plans, worklog)
	EventLog = nil
	AlertEngine = observability.NewAlertEngine(states, cfg.Targets, observability.DefaultAlertThresholds())
	MetricsCalc = nil
	Notifier = nil

	now = func() time.Time { return time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC) }
	return cfg
}

// resetFlags restores every flag of cmd to its default and clears Changed,
// so bound package variables do not leak between tests.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	reset := func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	reset()
	t.Cleanup(reset)
}

func setFlag(t *testing.T, cmd *cobra.Command, name, value string) {
	t.Helper()
	if err := cmd.Flags().Set(name, value); err != nil {
		t.Fatalf("setting --%s=%s: %v", name, value, err)
	}
}

func addTestTask(t *testing.T, title, bucket string, urgency, impact int) *models.Task {
	t.Helper()
	task, err := models.NewTask(title, bucket, urgency, impact, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	added, err := TaskMgr.AddTask(*task)
	if err != nil {
		t.Fatal(err)
	}
	return added
}

func logTaskRequest(id int) core.LogRequest {
	return core.LogRequest{TaskID: &id}
}
