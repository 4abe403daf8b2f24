// Package mcp provides an MCP (Model Context Protocol) server that exposes
// dayflow planning as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/dayflow/internal/core"
	"github.com/valter-silva-au/dayflow/internal/observability"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

// Services are the dayflow components the tools call. MetricsCalc and
// AlertEngine may be nil if observability is disabled.
type Services struct {
	TaskMgr     core.TaskManager
	PlanSvc     core.PlanService
	WorkLogger  core.WorkLogger
	Reporter    core.Reporter
	MetricsCalc observability.MetricsCalculator
	AlertEngine observability.AlertEngine
}

// Server wraps dayflow services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	svc    Services
	now    func() time.Time
}

// NewServer creates a new MCP server over svc.
func NewServer(svc Services, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{svc: svc, now: time.Now}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "dayflow", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Bucket       string  `json:"bucket"`
	Status       string  `json:"status"`
	Urgency      int     `json:"urgency"`
	Impact       int     `json:"impact"`
	Size         float64 `json:"size"`
	Difficulty   int     `json:"difficulty"`
	Score        float64 `json:"score"`
	PlannedDate  string  `json:"planned_date,omitempty"`
	DeadlineDays *int    `json:"deadline_days,omitempty"`
}

type listTasksInput struct {
	Status     string `json:"status,omitempty" jsonschema:"only list tasks with this status (todo, planned, wip, done)"`
	IncludeAll bool   `json:"include_all,omitempty" jsonschema:"include done tasks when no status is given"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type dateInput struct {
	Date string `json:"date,omitempty" jsonschema:"plan date as YYYY-MM-DD, defaults to today"`
}

type blockOutput struct {
	Block         int     `json:"block"`
	Bucket        string  `json:"bucket"`
	Title         string  `json:"title"`
	ExpectedScore float64 `json:"expected_score"`
	Status        string  `json:"status"`
	TaskID        int     `json:"task_id,omitempty"`
}

type planOutput struct {
	Date              string        `json:"date"`
	Blocks            []blockOutput `json:"blocks"`
	Done              int           `json:"done"`
	Preempted         int           `json:"preempted,omitempty"`
	Placeholders      int           `json:"placeholders,omitempty"`
	QualityViolations []string      `json:"quality_violations,omitempty"`
	Suggestion        string        `json:"suggestion,omitempty"`
}

type logBlockInput struct {
	Date         string `json:"date,omitempty" jsonschema:"plan date as YYYY-MM-DD, defaults to today"`
	Block        int    `json:"block" jsonschema:"the block number to mark done"`
	TaskID       int    `json:"task_id,omitempty" jsonschema:"the task the block was actually spent on"`
	ActualBucket string `json:"actual_bucket,omitempty" jsonschema:"the bucket actually worked on, when it differs from the plan"`
	ActualTitle  string `json:"actual_title,omitempty" jsonschema:"the title actually worked on, when it differs from the plan"`
	Notes        string `json:"notes,omitempty" jsonschema:"free-form notes"`
	CompleteTask bool   `json:"complete_task,omitempty" jsonschema:"also mark the task done"`
}

type logTaskInput struct {
	TaskID       int    `json:"task_id" jsonschema:"the task worked on outside the plan"`
	Notes        string `json:"notes,omitempty" jsonschema:"free-form notes"`
	CompleteTask bool   `json:"complete_task,omitempty" jsonschema:"also mark the task done"`
}

type logOutput struct {
	Bucket         string `json:"bucket"`
	Title          string `json:"title"`
	PlanningBucket string `json:"planning_bucket"`
	Message        string `json:"message"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	PlansGenerated  int            `json:"plans_generated"`
	BlocksPlanned   int            `json:"blocks_planned"`
	BlocksPreempted int            `json:"blocks_preempted"`
	Placeholders    int            `json:"placeholders"`
	BlocksLogged    int            `json:"blocks_logged"`
	TasksLogged     int            `json:"tasks_logged"`
	LoggedByBucket  map[string]int `json:"logged_by_bucket"`
	TasksCreated    int            `json:"tasks_created"`
	TasksCompleted  int            `json:"tasks_completed"`
	CompletionRate  float64        `json:"completion_rate"`
	EventCount      int            `json:"event_count"`
	OldestEvent     string         `json:"oldest_event,omitempty"`
	NewestEvent     string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

type getReportInput struct{}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks by descending priority score, optionally filtered by status. Done tasks are hidden unless requested.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_plan",
		Description: "Generate and save the day's plan of work blocks. Blocks already done are kept.",
	}, s.handleGeneratePlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_plan",
		Description: "Get the saved plan for a day.",
	}, s.handleGetPlan)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_block",
		Description: "Mark a planned block done, optionally recording what was actually worked on. A block can only be logged once.",
	}, s.handleLogBlock)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_task",
		Description: "Log unplanned work on a task. No plan is changed.",
	}, s.handleLogTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_report",
		Description: "Get the weekly report: realized bucket shares against targets, logged work by bucket, and plan adherence.",
	}, s.handleGetReport)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get planning metrics aggregated from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate weekly balance alerts (Feature below minimum, bucket off target, Chaos above target).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	var filter core.TaskFilter
	if input.Status != "" {
		status, err := models.ParseTaskStatus(input.Status)
		if err != nil {
			return errorResult(err.Error()), listTasksOutput{}, nil
		}
		filter.Include = []models.TaskStatus{status}
	} else if !input.IncludeAll {
		filter.Exclude = []models.TaskStatus{models.StatusDone}
	}

	tasks, err := s.svc.TaskMgr.ListTasks(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, st := range tasks {
		out.Tasks[i] = taskToOutput(st)
	}
	return nil, out, nil
}

func (s *Server) handleGeneratePlan(_ context.Context, _ *gomcp.CallToolRequest, input dateInput) (*gomcp.CallToolResult, planOutput, error) {
	outcome, err := s.svc.PlanSvc.GeneratePlan(input.Date)
	if err != nil {
		return errorResult(fmt.Sprintf("generating plan: %s", err)), planOutput{}, nil
	}
	out := planToOutput(outcome.Plan)
	out.Preempted = outcome.Preempted
	out.Placeholders = outcome.Placeholders
	out.QualityViolations = outcome.QualityViolations
	out.Suggestion = outcome.Suggestion
	return nil, out, nil
}

func (s *Server) handleGetPlan(_ context.Context, _ *gomcp.CallToolRequest, input dateInput) (*gomcp.CallToolResult, planOutput, error) {
	plan, err := s.svc.PlanSvc.GetPlan(input.Date)
	if err != nil {
		return errorResult(err.Error()), planOutput{}, nil
	}
	return nil, planToOutput(plan), nil
}

func (s *Server) handleLogBlock(_ context.Context, _ *gomcp.CallToolRequest, input logBlockInput) (*gomcp.CallToolResult, logOutput, error) {
	if input.Block <= 0 {
		return errorResult("block is required"), logOutput{}, nil
	}
	date := input.Date
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}
	block := input.Block
	req := core.LogRequest{
		Date:         date,
		Block:        &block,
		ActualBucket: input.ActualBucket,
		ActualTitle:  input.ActualTitle,
		Notes:        input.Notes,
		CompleteTask: input.CompleteTask,
	}
	if input.TaskID > 0 {
		id := input.TaskID
		req.TaskID = &id
	}

	result, err := s.svc.WorkLogger.Log(req)
	if err != nil {
		return errorResult(err.Error()), logOutput{}, nil
	}
	return nil, logOutput{
		Bucket:         result.Bucket,
		Title:          result.Title,
		PlanningBucket: result.PlanningBucket.String(),
		Message:        fmt.Sprintf("block %d of %s logged as %s", block, date, result.Bucket),
	}, nil
}

func (s *Server) handleLogTask(_ context.Context, _ *gomcp.CallToolRequest, input logTaskInput) (*gomcp.CallToolResult, logOutput, error) {
	if input.TaskID <= 0 {
		return errorResult("task_id is required"), logOutput{}, nil
	}
	id := input.TaskID
	result, err := s.svc.WorkLogger.Log(core.LogRequest{
		TaskID:       &id,
		Notes:        input.Notes,
		CompleteTask: input.CompleteTask,
	})
	if err != nil {
		return errorResult(err.Error()), logOutput{}, nil
	}
	return nil, logOutput{
		Bucket:         result.Bucket,
		Title:          result.Title,
		PlanningBucket: result.PlanningBucket.String(),
		Message:        fmt.Sprintf("task %d logged as %s", id, result.Bucket),
	}, nil
}

func (s *Server) handleGetReport(_ context.Context, _ *gomcp.CallToolRequest, _ getReportInput) (*gomcp.CallToolResult, core.WeeklyReport, error) {
	report, err := s.svc.Reporter.WeeklyReport()
	if err != nil {
		return errorResult(fmt.Sprintf("building report: %s", err)), emptyReport(), nil
	}
	return nil, *report, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.svc.MetricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	sinceTime, err := parseSince(s.now(), sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.svc.MetricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		PlansGenerated:  metrics.PlansGenerated,
		BlocksPlanned:   metrics.BlocksPlanned,
		BlocksPreempted: metrics.BlocksPreempted,
		Placeholders:    metrics.Placeholders,
		BlocksLogged:    metrics.BlocksLogged,
		TasksLogged:     metrics.TasksLogged,
		LoggedByBucket:  metrics.LoggedByBucket,
		TasksCreated:    metrics.TasksCreated,
		TasksCompleted:  metrics.TasksCompleted,
		CompletionRate:  metrics.CompletionRate(),
		EventCount:      metrics.EventCount,
	}
	if out.LoggedByBucket == nil {
		out.LoggedByBucket = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.svc.AlertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.svc.AlertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(st core.ScoredTask) taskOutput {
	t := st.Task
	return taskOutput{
		ID:           t.ID,
		Title:        t.Title,
		Bucket:       t.Bucket,
		Status:       string(t.Status),
		Urgency:      t.Urgency,
		Impact:       t.Impact,
		Size:         t.Size,
		Difficulty:   t.Difficulty,
		Score:        st.Score,
		PlannedDate:  t.PlannedDate,
		DeadlineDays: t.DeadlineDays,
	}
}

func planToOutput(p *models.Plan) planOutput {
	out := planOutput{
		Date:   p.Date,
		Blocks: make([]blockOutput, len(p.Blocks)),
		Done:   p.DoneCount(),
	}
	for i, b := range p.Blocks {
		out.Blocks[i] = blockOutput{
			Block:         b.Block,
			Bucket:        b.Bucket,
			Title:         b.Title,
			ExpectedScore: b.ExpectedScore,
			Status:        string(b.Status),
			TaskID:        b.TaskID,
		}
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{LoggedByBucket: make(map[string]int)}
}

func emptyReport() core.WeeklyReport {
	return core.WeeklyReport{
		RealizedRatios: make(map[string]float64),
		TargetRatios:   make(map[string]float64),
		RatioErrors:    make(map[string]float64),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time before ref.
func parseSince(ref time.Time, s string) (time.Time, error) {
	ref = ref.UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return ref.AddDate(0, 0, -num), nil
	case 'h':
		return ref.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
