package core

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// WeeklyMaintenance exposes the two independent ways of ageing the
// transition model: a full reset and a decay pass. Neither triggers the other.
type WeeklyMaintenance interface {
	// CurrentState returns the persisted state, or a fresh one for today's
	// date when nothing has been saved yet.
	CurrentState() (*models.WeeklyState, error)
	ResetWeek(weekStart string) (*models.WeeklyState, error)
	DecayTransitions(factor float64) (*models.WeeklyState, error)
}

type weeklyMaintenance struct {
	states      StateStore
	laplace     float64
	eventLogger EventLogger
	logger      *zap.Logger
	now         func() time.Time
}

// NewWeeklyMaintenance creates a WeeklyMaintenance. laplace is added to the
// diagonal after each decay. eventLogger and logger may be nil.
func NewWeeklyMaintenance(states StateStore, laplace float64, eventLogger EventLogger, logger *zap.Logger) WeeklyMaintenance {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &weeklyMaintenance{
		states:      states,
		laplace:     laplace,
		eventLogger: eventLogger,
		logger:      logger,
		now:         time.Now,
	}
}

func (m *weeklyMaintenance) CurrentState() (*models.WeeklyState, error) {
	state, err := m.states.LoadState()
	if errors.Is(err, models.ErrNotFound) {
		return NewWeeklyState(m.now().Format(models.DateLayout)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading weekly state: %w", err)
	}
	return state, nil
}

// ResetWeek replaces the state with a zeroed one. No decay is applied and
// nothing carries over. An empty weekStart means today.
func (m *weeklyMaintenance) ResetWeek(weekStart string) (*models.WeeklyState, error) {
	if weekStart == "" {
		weekStart = m.now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, weekStart); err != nil {
		return nil, fmt.Errorf("resetting week: week start %q must be YYYY-MM-DD", weekStart)
	}
	state := NewWeeklyState(weekStart)
	if err := m.states.SaveState(state); err != nil {
		return nil, fmt.Errorf("resetting week: %w", err)
	}
	m.logger.Info("weekly state reset", zap.String("week_start", weekStart))
	emit(m.eventLogger, EventWeekReset, map[string]any{"week_start": weekStart})
	return state, nil
}

// DecayTransitions fades the persisted transition matrix by factor. Weekly
// counters and the current bucket are untouched.
func (m *weeklyMaintenance) DecayTransitions(factor float64) (*models.WeeklyState, error) {
	state, err := m.states.LoadState()
	if err != nil {
		return nil, fmt.Errorf("decaying transitions: %w", err)
	}
	if err := DecayTransitions(&state.Transitions, factor, m.laplace); err != nil {
		return nil, fmt.Errorf("decaying transitions: %w", err)
	}
	if err := m.states.SaveState(state); err != nil {
		return nil, fmt.Errorf("decaying transitions: %w", err)
	}
	m.logger.Info("transitions decayed", zap.Float64("factor", factor), zap.Float64("laplace", m.laplace))
	emit(m.eventLogger, EventTransitionsDecayed, map[string]any{
		"factor":  factor,
		"laplace": m.laplace,
	})
	return state, nil
}
