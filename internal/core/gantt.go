package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

var ganttHeader = []string{
	"gantt",
	"    dateFormat HH:mm",
	"    axisFormat %H:%M",
}

// parseWorkStart returns minutes after midnight for an HH:MM string.
func parseWorkStart(s string) (int, error) {
	if s == "" {
		s = "09:00"
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("work_start_time %q must be HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func ganttLabel(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, ":", ""), `"`, "'")
}

// ganttTasks renders one line per block. Blocks are laid end to end from
// startMinutes using the slot durations. A logged block whose bucket matches
// the plan is done, a logged block with another bucket is active and a
// block without a log entry is crit.
func ganttTasks(plan *models.Plan, entries []models.WorkLogEntry, focus *FocusPolicy, startMinutes int) []string {
	actual := make(map[int]models.WorkLogEntry)
	for _, e := range entries {
		if e.Block != nil && e.Date == plan.Date {
			actual[*e.Block] = e
		}
	}

	lines := make([]string, 0, len(plan.Blocks))
	current := startMinutes
	for _, b := range plan.Blocks {
		duration := int(focus.Duration(b.Block) * 60)
		start := fmt.Sprintf("%02d:%02d", (current/60)%24, current%60)

		var status, label string
		if e, ok := actual[b.Block]; ok {
			title := ganttLabel(e.ActualTitle)
			if e.ActualBucket == b.Bucket {
				status = "done"
				label = fmt.Sprintf("[%s] %s", e.ActualBucket, title)
			} else {
				status = "active"
				label = fmt.Sprintf("[%s] %s (vs %s)", e.ActualBucket, title, b.Bucket)
			}
		} else {
			status = "crit"
			label = fmt.Sprintf("[%s] %s (not done)", b.Bucket, ganttLabel(b.Title))
		}
		lines = append(lines, fmt.Sprintf("    %s :%s, %s, %dm", label, status, start, duration))
		current += duration
	}
	return lines
}

// GenerateDailyGantt renders one plan as a Mermaid Gantt chart. An empty
// plan yields "".
func GenerateDailyGantt(plan *models.Plan, entries []models.WorkLogEntry, focus *FocusPolicy, workStart string) (string, error) {
	if plan == nil || len(plan.Blocks) == 0 {
		return "", nil
	}
	start, err := parseWorkStart(workStart)
	if err != nil {
		return "", err
	}
	lines := append([]string{}, ganttHeader...)
	lines = append(lines, "    section Work Blocks")
	lines = append(lines, ganttTasks(plan, entries, focus, start)...)
	return strings.Join(lines, "\n"), nil
}

// GenerateWeekGantt renders several plans, one section per day in date
// order. It yields "" when no plan has blocks.
func GenerateWeekGantt(plans []*models.Plan, entries []models.WorkLogEntry, focus *FocusPolicy, workStart string) (string, error) {
	start, err := parseWorkStart(workStart)
	if err != nil {
		return "", err
	}
	lines := append([]string{}, ganttHeader...)
	sections := 0
	for _, p := range plans {
		if len(p.Blocks) == 0 {
			continue
		}
		day, err := time.Parse(models.DateLayout, p.Date)
		if err != nil {
			return "", fmt.Errorf("plan date %q must be YYYY-MM-DD", p.Date)
		}
		lines = append(lines, fmt.Sprintf("    section %s (%s)", day.Weekday(), p.Date))
		lines = append(lines, ganttTasks(p, entries, focus, start)...)
		sections++
	}
	if sections == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n"), nil
}
