package core

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// PlanOutcome is a saved plan plus the weekly feedback shown alongside it.
type PlanOutcome struct {
	*PlanResult
	QualityViolations []string
	Suggestion        string
	// StateCreated is set when no weekly state existed and a fresh one was
	// saved for the plan's date.
	StateCreated bool
}

// PlanService loads everything a plan needs, generates it and saves it.
type PlanService interface {
	GeneratePlan(date string) (*PlanOutcome, error)
	GetPlan(date string) (*models.Plan, error)
}

type planService struct {
	cfg         *models.PlannerConfig
	tasks       TaskStore
	states      StateStore
	plans       PlanStore
	generator   PlanGenerator
	eventLogger EventLogger
	logger      *zap.Logger
	now         func() time.Time
}

// NewPlanService creates a PlanService drawing randomness from rng.
// eventLogger and logger may be nil.
func NewPlanService(cfg *models.PlannerConfig, tasks TaskStore, states StateStore, plans PlanStore, rng RandomSource, eventLogger EventLogger, logger *zap.Logger) PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &planService{
		cfg:         cfg,
		tasks:       tasks,
		states:      states,
		plans:       plans,
		generator:   NewPlanGenerator(cfg, rng, logger),
		eventLogger: eventLogger,
		logger:      logger,
		now:         time.Now,
	}
}

// GeneratePlan (re)generates the plan for date, empty meaning today. Done
// blocks of an existing plan for the same date are preserved.
func (s *planService) GeneratePlan(date string) (*PlanOutcome, error) {
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}

	list, err := s.tasks.LoadTasks()
	if err != nil {
		return nil, fmt.Errorf("generating plan: loading tasks: %w", err)
	}

	stateCreated := false
	state, err := s.states.LoadState()
	if errors.Is(err, models.ErrNotFound) {
		state = NewWeeklyState(date)
		stateCreated = true
	} else if err != nil {
		return nil, fmt.Errorf("generating plan: loading state: %w", err)
	}

	existing, err := s.plans.LoadPlan(date)
	if errors.Is(err, models.ErrNotFound) {
		existing = nil
	} else if err != nil {
		return nil, fmt.Errorf("generating plan: loading existing plan: %w", err)
	}

	result, err := s.generator.Generate(PlanRequest{
		Date:     date,
		Tasks:    list.Tasks,
		State:    state,
		Existing: existing,
	})
	if err != nil {
		return nil, err
	}

	if stateCreated {
		if err := s.states.SaveState(state); err != nil {
			return nil, fmt.Errorf("generating plan: saving state: %w", err)
		}
	}
	if err := s.plans.SavePlan(result.Plan); err != nil {
		return nil, fmt.Errorf("generating plan: saving plan: %w", err)
	}

	s.logger.Info("plan generated",
		zap.String("date", date),
		zap.Int("blocks", len(result.Plan.Blocks)),
		zap.Int("preempted", result.Preempted),
		zap.Int("placeholders", result.Placeholders))
	emit(s.eventLogger, EventPlanGenerated, map[string]any{
		"date":         date,
		"blocks":       len(result.Plan.Blocks),
		"carried_over": result.CarriedOver,
		"preempted":    result.Preempted,
		"sampled":      result.Sampled,
		"fallbacks":    result.Fallbacks,
		"placeholders": result.Placeholders,
	})

	return &PlanOutcome{
		PlanResult:        result,
		QualityViolations: QualityGateViolations(state.WeeklyBlocks, s.cfg.Targets),
		Suggestion:        SuggestFocusOptimization(state.WeeklyBlocks, s.cfg.Targets),
		StateCreated:      stateCreated,
	}, nil
}

// GetPlan returns the saved plan for date, empty meaning today.
func (s *planService) GetPlan(date string) (*models.Plan, error) {
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}
	plan, err := s.plans.LoadPlan(date)
	if err != nil {
		return nil, fmt.Errorf("getting plan: %w", err)
	}
	return plan, nil
}
