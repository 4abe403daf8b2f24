package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/dayflow/internal/storage"
	"github.com/valter-silva-au/dayflow/pkg/models"
)

// Dashboard panel indices.
const (
	panelPlan = iota
	panelBalance
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	plan    *models.Plan
	balance []balanceRow
	week    string
	alerts  []alertSnapshot

	watcher *fsnotify.Watcher

	// State.
	loading bool
	err     error
}

type balanceRow struct {
	bucket string
	count  int
	share  float64
	target float64
}

type alertSnapshot struct {
	severity string
	message  string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	plan    *models.Plan
	balance []balanceRow
	week    string
	alerts  []alertSnapshot
	err     error
}

// dataChangedMsg reports a write to the data directory.
type dataChangedMsg struct {
	path string
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	overTargetStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	underTargetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	onTargetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel(watcher *fsnotify.Watcher) dashboardModel {
	return dashboardModel{
		activePanel: panelPlan,
		loading:     true,
		watcher:     watcher,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	if m.watcher == nil {
		return loadDashboardData
	}
	return tea.Batch(loadDashboardData, waitForChange(m.watcher))
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadDashboardData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataChangedMsg:
		return m, tea.Batch(loadDashboardData, waitForChange(m.watcher))

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.plan = msg.plan
		m.balance = msg.balance
		m.week = msg.week
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" dayflow ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")
	if m.watcher != nil {
		help = helpStyle.Render("tab: switch panel | r: refresh | q: quit | live")
	}

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	planPanel := m.renderPlanPanel()
	balancePanel := m.renderBalancePanel()
	alertsPanel := m.renderAlertsPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		planPanel = m.applyPanelStyle(panelPlan, planPanel, colWidth-4)
		balancePanel = m.applyPanelStyle(panelBalance, balancePanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, planPanel, balancePanel, alertsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		planPanel = m.applyPanelStyle(panelPlan, planPanel, panelWidth)
		balancePanel = m.applyPanelStyle(panelBalance, balancePanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, planPanel, balancePanel, alertsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderPlanPanel() string {
	var b strings.Builder
	if m.plan == nil {
		b.WriteString(headerStyle.Render("Today"))
		b.WriteString("\n")
		b.WriteString("  No plan for today.")
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("Plan %s (%d/%d)", m.plan.Date, m.plan.DoneCount(), len(m.plan.Blocks))))
	b.WriteString("\n")
	for _, block := range m.plan.Blocks {
		mark := blockPlannedStyle.Render("[ ]")
		if block.Completed() {
			mark = blockDoneStyle.Render("[x]")
		}
		b.WriteString(fmt.Sprintf("  %d %s %-8s %s\n", block.Block, mark, block.Bucket, block.Title))
	}
	return b.String()
}

func (m dashboardModel) renderBalancePanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Week " + m.week))
	b.WriteString("\n")

	total := 0
	for _, row := range m.balance {
		total += row.count
	}
	if total == 0 {
		b.WriteString("  Nothing logged this week.")
		return b.String()
	}

	for _, row := range m.balance {
		label := fmt.Sprintf("  %-8s %3d %5.1f%% / %4.1f%%", row.bucket, row.count, row.share*100, row.target*100)
		b.WriteString(styleForDeviation(row.share - row.target).Render(label))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d block(s)", total))
	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForDeviation(dev float64) lipgloss.Style {
	switch {
	case dev > 0.15:
		return overTargetStyle
	case dev < -0.15:
		return underTargetStyle
	default:
		return onTargetStyle
	}
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

func loadDashboardData() tea.Msg {
	var result dataLoadedMsg

	if PlanSvc != nil {
		plan, err := PlanSvc.GetPlan(today())
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			result.err = fmt.Errorf("loading plan: %w", err)
			return result
		}
		result.plan = plan
	}

	if Maintenance != nil {
		state, err := Maintenance.CurrentState()
		if err != nil {
			result.err = fmt.Errorf("loading weekly state: %w", err)
			return result
		}
		result.week = state.WeekStart
		share := state.RealizedShare()
		for _, b := range models.AllBuckets() {
			row := balanceRow{bucket: b.String(), count: state.WeeklyBlocks[b], share: share[b]}
			if Config != nil {
				row.target = Config.Targets[b]
			}
			result.balance = append(result.balance, row)
		}
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})
		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

// newDataWatcher watches the data directory and its plans directory.
func newDataWatcher(basePath string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(basePath); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", basePath, err)
	}
	// The plans directory may not exist before the first plan.
	_ = w.Add(filepath.Join(basePath, storage.PlansDirName))
	return w, nil
}

// waitForChange blocks until a relevant file in the data directory is
// written, created, renamed or removed.
func waitForChange(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if relevantChange(ev) {
					return dataChangedMsg{path: ev.Name}
				}
			case _, ok := <-w.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func relevantChange(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".jsonl")
}

var dashboardNoWatch bool

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for today's plan, weekly balance and alerts",
	Long: `Launch an interactive terminal dashboard showing today's plan, the week's
bucket balance against the targets, and balance alerts.

The view reloads whenever files in the data directory change. Navigate
between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if PlanSvc == nil || Maintenance == nil {
			return fmt.Errorf("planning services not initialized")
		}

		var watcher *fsnotify.Watcher
		if !dashboardNoWatch && BasePath != "" {
			w, err := newDataWatcher(BasePath)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()
			watcher = w
		}

		p := tea.NewProgram(newDashboardModel(watcher), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	dashboardCmd.Flags().BoolVar(&dashboardNoWatch, "no-watch", false, "Disable live reload")
	rootCmd.AddCommand(dashboardCmd)
}
