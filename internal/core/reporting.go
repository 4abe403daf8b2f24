package core

import (
	"errors"
	"fmt"
	"math"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// OriginalBuckets breaks logged work down by display bucket. ChaosCounts
// lists the display buckets that were folded into Chaos.
type OriginalBuckets struct {
	TotalEntries     int                `json:"total_entries" yaml:"total_entries"`
	Counts           map[string]int     `json:"bucket_counts" yaml:"bucket_counts"`
	Percentages      map[string]float64 `json:"bucket_percentages" yaml:"bucket_percentages"`
	ChaosCounts      map[string]int     `json:"chaos_counts,omitempty" yaml:"chaos_counts,omitempty"`
	ChaosPercentages map[string]float64 `json:"chaos_percentages,omitempty" yaml:"chaos_percentages,omitempty"`
}

// Adherence measures how much of the planned work was completed.
type Adherence struct {
	Plans          int     `json:"plans" yaml:"plans"`
	TotalBlocks    int     `json:"total_blocks" yaml:"total_blocks"`
	DoneBlocks     int     `json:"done_blocks" yaml:"done_blocks"`
	CompletionRate float64 `json:"completion_rate" yaml:"completion_rate"`
	OnPlanRate     float64 `json:"on_plan_rate" yaml:"on_plan_rate"`
}

// WeeklyReport summarises the current week against the targets.
type WeeklyReport struct {
	WeekStart         string             `json:"week_start" yaml:"week_start"`
	TotalBlocks       int                `json:"total_blocks" yaml:"total_blocks"`
	RealizedRatios    map[string]float64 `json:"realized_ratios" yaml:"realized_ratios"`
	TargetRatios      map[string]float64 `json:"target_ratios" yaml:"target_ratios"`
	RatioErrors       map[string]float64 `json:"ratio_errors" yaml:"ratio_errors"`
	OriginalBuckets   *OriginalBuckets   `json:"original_buckets,omitempty" yaml:"original_buckets,omitempty"`
	Adherence         *Adherence         `json:"adherence,omitempty" yaml:"adherence,omitempty"`
	QualityViolations []string           `json:"quality_violations,omitempty" yaml:"quality_violations,omitempty"`
	Suggestion        string             `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Reporter builds weekly reports and Gantt charts from persisted data.
type Reporter interface {
	WeeklyReport() (*WeeklyReport, error)
	DailyGantt(date string) (string, error)
	WeekGantt() (string, error)
}

type reporter struct {
	cfg     *models.PlannerConfig
	states  StateStore
	plans   PlanStore
	worklog WorkLogStore
}

// NewReporter creates a Reporter.
func NewReporter(cfg *models.PlannerConfig, states StateStore, plans PlanStore, worklog WorkLogStore) Reporter {
	return &reporter{cfg: cfg, states: states, plans: plans, worklog: worklog}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// WeeklyReport reads the weekly state, the work log and the plans dated on
// or after the week start.
func (r *reporter) WeeklyReport() (*WeeklyReport, error) {
	state, err := r.states.LoadState()
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}

	report := &WeeklyReport{
		WeekStart:      state.WeekStart,
		TotalBlocks:    state.WeeklyBlocks.Total(),
		RealizedRatios: make(map[string]float64),
		TargetRatios:   make(map[string]float64),
		RatioErrors:    make(map[string]float64),
	}

	share := state.RealizedShare()
	if report.TotalBlocks > 0 {
		for _, b := range models.AllBuckets() {
			report.RealizedRatios[b.String()] = round3(share[b])
		}
	} else {
		for b := range r.cfg.Targets {
			report.RealizedRatios[b.String()] = 0
		}
	}
	for b, target := range r.cfg.Targets {
		report.TargetRatios[b.String()] = round3(target)
		report.RatioErrors[b.String()] = round3(share[b] - target)
	}

	entries, err := r.worklog.Read(models.WorkLogFilter{Since: state.WeekStart})
	if err != nil {
		return nil, fmt.Errorf("building report: reading work log: %w", err)
	}
	report.OriginalBuckets = AnalyzeOriginalBuckets(entries)

	plans, err := r.plansSince(state.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}
	report.Adherence = CalculateAdherence(plans)

	report.QualityViolations = QualityGateViolations(state.WeeklyBlocks, r.cfg.Targets)
	report.Suggestion = SuggestFocusOptimization(state.WeeklyBlocks, r.cfg.Targets)
	return report, nil
}

func (r *reporter) plansSince(since string) ([]*models.Plan, error) {
	dates, err := r.plans.ListPlanDates()
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	var out []*models.Plan
	for _, d := range dates {
		if since != "" && d < since {
			continue
		}
		p, err := r.plans.LoadPlan(d)
		if err != nil {
			return nil, fmt.Errorf("loading plan %s: %w", d, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// AnalyzeOriginalBuckets counts logged work per display bucket. It returns
// nil when there are no entries.
func AnalyzeOriginalBuckets(entries []models.WorkLogEntry) *OriginalBuckets {
	if len(entries) == 0 {
		return nil
	}
	ob := &OriginalBuckets{
		TotalEntries: len(entries),
		Counts:       make(map[string]int),
		Percentages:  make(map[string]float64),
	}
	for _, e := range entries {
		ob.Counts[e.ActualBucket]++
		if models.ToPlanningBucket(e.ActualBucket) == models.BucketChaos && e.ActualBucket != models.BucketChaos.String() {
			if ob.ChaosCounts == nil {
				ob.ChaosCounts = make(map[string]int)
				ob.ChaosPercentages = make(map[string]float64)
			}
			ob.ChaosCounts[e.ActualBucket]++
		}
	}
	total := float64(ob.TotalEntries)
	for b, n := range ob.Counts {
		ob.Percentages[b] = round3(float64(n) / total)
	}
	for b, n := range ob.ChaosCounts {
		ob.ChaosPercentages[b] = round3(float64(n) / total)
	}
	return ob
}

// CalculateAdherence counts planned and done blocks across plans. It
// returns nil when there are no blocks.
func CalculateAdherence(plans []*models.Plan) *Adherence {
	a := &Adherence{Plans: len(plans)}
	for _, p := range plans {
		a.TotalBlocks += len(p.Blocks)
		a.DoneBlocks += p.DoneCount()
	}
	if a.TotalBlocks == 0 {
		return nil
	}
	a.CompletionRate = round3(float64(a.DoneBlocks) / float64(a.TotalBlocks))
	a.OnPlanRate = a.CompletionRate
	return a
}

// DailyGantt renders the plan for date as a Mermaid Gantt chart.
func (r *reporter) DailyGantt(date string) (string, error) {
	focus, err := NewFocusPolicy(r.cfg.BlocksPerDay, r.cfg.Slots)
	if err != nil {
		return "", fmt.Errorf("rendering gantt: %w", err)
	}
	plan, err := r.plans.LoadPlan(date)
	if err != nil {
		return "", fmt.Errorf("rendering gantt: %w", err)
	}
	entries, err := r.worklog.Read(models.WorkLogFilter{Since: date, Until: date})
	if err != nil {
		return "", fmt.Errorf("rendering gantt: reading work log: %w", err)
	}
	return GenerateDailyGantt(plan, entries, focus, r.cfg.WorkStartTime)
}

// WeekGantt renders every plan of the current week, one section per day.
func (r *reporter) WeekGantt() (string, error) {
	focus, err := NewFocusPolicy(r.cfg.BlocksPerDay, r.cfg.Slots)
	if err != nil {
		return "", fmt.Errorf("rendering gantt: %w", err)
	}
	since := ""
	state, err := r.states.LoadState()
	switch {
	case err == nil:
		since = state.WeekStart
	case !errors.Is(err, models.ErrNotFound):
		return "", fmt.Errorf("rendering gantt: %w", err)
	}
	plans, err := r.plansSince(since)
	if err != nil {
		return "", fmt.Errorf("rendering gantt: %w", err)
	}
	entries, err := r.worklog.Read(models.WorkLogFilter{Since: since})
	if err != nil {
		return "", fmt.Errorf("rendering gantt: reading work log: %w", err)
	}
	return GenerateWeekGantt(plans, entries, focus, r.cfg.WorkStartTime)
}
