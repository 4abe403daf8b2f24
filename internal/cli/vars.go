package cli

import (
	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/internal/observability"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

// Planning service instances, set during app initialization in app.go.
var (
	BasePath    string
	Config      *models.PlannerConfig
	ConfigErr   error
	ConfigMgr   core.ConfigurationManager
	TaskMgr     core.TaskManager
	PlanSvc     core.PlanService
	WorkLogger  core.WorkLogger
	Maintenance core.WeeklyMaintenance
	Reporter    core.Reporter
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
