package core

import (
	"fmt"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// NewWeeklyState returns a zeroed state for the week starting at weekStart.
// It never applies decay; the current bucket starts at Feature.
func NewWeeklyState(weekStart string) *models.WeeklyState {
	return &models.WeeklyState{
		CurrentBucket: models.BucketFeature,
		WeekStart:     weekStart,
	}
}

// RecordTransition feeds one logged block or task back into the model: the
// week's counter for resolved is incremented, the current→resolved cell
// gains 1.0 and resolved becomes the current bucket.
func RecordTransition(state *models.WeeklyState, resolved models.Bucket) {
	state.WeeklyBlocks[resolved]++
	state.Transitions[state.CurrentBucket][resolved] += 1.0
	state.CurrentBucket = resolved
}

// DecayTransitions multiplies every cell by factor and then adds laplace to
// each row's self-transition.
func DecayTransitions(m *models.TransitionMatrix, factor, laplace float64) error {
	if factor <= 0 || factor >= 1 {
		return fmt.Errorf("decay factor %v must be in (0, 1)", factor)
	}
	if laplace < 0 {
		return fmt.Errorf("laplace %v must be non-negative", laplace)
	}
	for from := range m {
		for to := range m[from] {
			m[from][to] *= factor
		}
		m[from][from] += laplace
	}
	return nil
}
