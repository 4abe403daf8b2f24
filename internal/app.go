// Package internal provides the App struct that wires all components of
// dayflow together and initializes the CLI layer.
package internal

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/valter-silva-au/dayflow/internal/cli"
	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/internal/observability"
	"github.com/valter-silva-au/dayflow/internal/storage"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

// workLogBackend is the work-log store plus its resources.
type workLogBackend interface {
	core.WorkLogStore
	Close() error
}

// App holds all service dependencies of dayflow.
type App struct {
	BasePath string
	Config   *models.PlannerConfig
	// ConfigErr is set when blocks_config.yaml exists but cannot be read.
	// Config then holds the defaults.
	ConfigErr error
	Logger    *zap.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	TaskStore  *storage.FileTaskStore
	StateStore *storage.FileStateStore
	PlanStore  *storage.FilePlanStore
	WorkLog    workLogBackend

	// Core services
	TaskMgr     core.TaskManager
	PlanSvc     core.PlanService
	WorkLogger  core.WorkLogger
	Maintenance core.WeeklyMaintenance
	Reporter    core.Reporter

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of dayflow. basePath is the data
// directory holding blocks_config.yaml, tasks, state, plans and logs.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		// Keep going with defaults so "config init --force" can repair the file.
		app.ConfigErr = err
		cfg = core.DefaultPlannerConfig()
	}
	app.Config = cfg

	// --- Logging ---
	app.Logger, err = observability.NewLogger(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	if app.ConfigErr == nil {
		if verr := app.ConfigMgr.ValidateConfig(cfg); verr != nil {
			app.Logger.Warn("configuration is invalid", zap.Error(verr))
		}
	}

	// --- Storage layer ---
	app.TaskStore = storage.NewTaskStore(basePath)
	app.StateStore = storage.NewStateStore(basePath)
	app.PlanStore = storage.NewPlanStore(basePath)
	app.WorkLog, err = openWorkLog(basePath, cfg.WorkLog.Backend)
	if err != nil {
		return nil, err
	}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, observability.EventLogFileName))
	if err != nil {
		// Non-fatal: disable the event log if it can't be created.
		app.Logger.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = &observability.Recorder{Log: app.EventLog}
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	thresholds := observability.DefaultAlertThresholds()
	if cfg.Alerts.DeviationThreshold > 0 {
		thresholds.DeviationThreshold = cfg.Alerts.DeviationThreshold
	}
	app.AlertEngine = observability.NewAlertEngine(app.StateStore, cfg.Targets, thresholds)
	if cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Core services ---
	rng, err := newRandomSource(os.Getenv("DAYFLOW_SEED"))
	if err != nil {
		return nil, err
	}
	weights := core.ScoreWeights{Beta: cfg.Beta, Gamma: cfg.Gamma}
	app.TaskMgr = core.NewTaskManager(app.TaskStore, weights, events, app.Logger.Named("tasks"))
	app.PlanSvc = core.NewPlanService(cfg, app.TaskStore, app.StateStore, app.PlanStore, rng, events, app.Logger.Named("planner"))
	app.WorkLogger = core.NewWorkLogger(app.TaskStore, app.StateStore, app.PlanStore, app.WorkLog, events, app.Logger.Named("worklog"))
	app.Maintenance = core.NewWeeklyMaintenance(app.StateStore, cfg.Laplace, events, app.Logger.Named("week"))
	app.Reporter = core.NewReporter(cfg, app.StateStore, app.PlanStore, app.WorkLog)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.ConfigErr = app.ConfigErr
	cli.ConfigMgr = app.ConfigMgr
	cli.TaskMgr = app.TaskMgr
	cli.PlanSvc = app.PlanSvc
	cli.WorkLogger = app.WorkLogger
	cli.Maintenance = app.Maintenance
	cli.Reporter = app.Reporter

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases the event log, the work log and flushes the logger. It is
// safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	var errs []error
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	if a.WorkLog != nil {
		errs = append(errs, a.WorkLog.Close())
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}

func openWorkLog(basePath, backend string) (workLogBackend, error) {
	switch backend {
	case "sqlite":
		wl, err := storage.OpenSQLiteWorkLog(basePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite work log: %w", err)
		}
		return wl, nil
	case "jsonl", "":
		return storage.NewJSONLWorkLog(basePath), nil
	default:
		return nil, fmt.Errorf("unknown worklog.backend %q: must be jsonl or sqlite", backend)
	}
}

// newRandomSource returns a PCG generator. A non-empty seed makes plan
// generation reproducible.
func newRandomSource(seed string) (*rand.Rand, error) {
	if seed == "" {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), nil
	}
	n, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("DAYFLOW_SEED %q must be an unsigned integer", seed)
	}
	return rand.New(rand.NewPCG(n, n)), nil
}

// ResolveBasePath determines the data directory. It checks the DAYFLOW_HOME
// env var, then walks up from the current directory looking for
// blocks_config.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("DAYFLOW_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
