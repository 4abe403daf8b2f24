package observability

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when balance alerts fire.
type AlertThresholds struct {
	// DeviationThreshold is the largest tolerated |realized - target| share.
	DeviationThreshold float64 `yaml:"deviation_threshold" json:"deviation_threshold"`
	// MinBlocks is how many blocks a week needs before shares are judged.
	MinBlocks int `yaml:"min_blocks" json:"min_blocks"`
}

// DefaultAlertThresholds returns the default thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		DeviationThreshold: 0.15,
		MinBlocks:          3,
	}
}

// StateSource provides the persisted weekly state.
type StateSource interface {
	LoadState() (*models.WeeklyState, error)
}

// AlertEngine evaluates the week's bucket balance against the targets.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	states     StateSource
	targets    map[models.Bucket]float64
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine.
func NewAlertEngine(states StateSource, targets map[models.Bucket]float64, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		states:     states,
		targets:    targets,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate returns the triggered alerts. A week without state or with fewer
// than MinBlocks logged blocks triggers nothing.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	state, err := ae.states.LoadState()
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading weekly state: %w", err)
	}
	total := state.WeeklyBlocks.Total()
	if total == 0 || total < ae.thresholds.MinBlocks {
		return nil, nil
	}

	now := ae.now()
	var alerts []Alert
	alerts = append(alerts, ae.checkFeatureMinimum(state, total, now)...)
	alerts = append(alerts, ae.checkLargestDeviation(state, now)...)
	alerts = append(alerts, ae.checkChaos(state, now)...)
	return alerts, nil
}

// checkFeatureMinimum fires when Feature work is below its target share,
// counted in whole blocks.
func (ae *alertEngine) checkFeatureMinimum(state *models.WeeklyState, total int, now time.Time) []Alert {
	target, ok := ae.targets[models.BucketFeature]
	if !ok {
		target = 0.4
	}
	minimum := int(float64(total) * target)
	got := state.WeeklyBlocks[models.BucketFeature]
	if got >= minimum {
		return nil
	}
	return []Alert{{
		ID:          fmt.Sprintf("feature-minimum-%s", state.WeekStart),
		Condition:   "feature_below_minimum",
		Severity:    SeverityHigh,
		Message:     fmt.Sprintf("Feature blocks below minimum: %d/%d this week", got, minimum),
		TriggeredAt: now,
	}}
}

// checkLargestDeviation fires for the targeted bucket furthest from its
// share when that distance exceeds the threshold.
func (ae *alertEngine) checkLargestDeviation(state *models.WeeklyState, now time.Time) []Alert {
	share := state.RealizedShare()
	worst := models.Bucket(-1)
	worstDev := 0.0
	for _, b := range models.AllBuckets() {
		target, ok := ae.targets[b]
		if !ok {
			continue
		}
		dev := share[b] - target
		if math.Abs(dev) > math.Abs(worstDev) {
			worst, worstDev = b, dev
		}
	}
	if worst < 0 || math.Abs(worstDev) <= ae.thresholds.DeviationThreshold {
		return nil
	}
	direction := "over"
	if worstDev < 0 {
		direction = "under"
	}
	return []Alert{{
		ID:          fmt.Sprintf("deviation-%s-%s", worst, state.WeekStart),
		Condition:   "bucket_off_target",
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("%s is %.1f%% %s target (%.1f%% vs %.1f%%)", worst, math.Abs(worstDev)*100, direction, share[worst]*100, ae.targets[worst]*100),
		TriggeredAt: now,
	}}
}

// checkChaos fires when unplanned categories take more than their target.
func (ae *alertEngine) checkChaos(state *models.WeeklyState, now time.Time) []Alert {
	target, ok := ae.targets[models.BucketChaos]
	if !ok {
		return nil
	}
	share := state.RealizedShare()[models.BucketChaos]
	if share <= target {
		return nil
	}
	return []Alert{{
		ID:          fmt.Sprintf("chaos-%s", state.WeekStart),
		Condition:   "chaos_above_target",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("Chaos work at %.1f%% of the week, target %.1f%%", share*100, target*100),
		TriggeredAt: now,
	}}
}
