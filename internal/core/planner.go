package core

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// PlanRequest is everything one generation pass reads. Existing may be nil.
type PlanRequest struct {
	Date     string
	Tasks    []models.Task
	State    *models.WeeklyState
	Existing *models.Plan
}

// PlanResult is a generated plan plus how each slot was filled.
type PlanResult struct {
	Plan         *models.Plan
	CarriedOver  int
	Preempted    int
	Sampled      int
	Fallbacks    int
	Placeholders int
	// Draws is the number of random numbers consumed.
	Draws int
}

// PlanGenerator turns tasks and the weekly state into a day's plan.
type PlanGenerator interface {
	Generate(req PlanRequest) (*PlanResult, error)
}

type planGenerator struct {
	cfg    *models.PlannerConfig
	rng    RandomSource
	logger *zap.Logger
}

// NewPlanGenerator creates a PlanGenerator drawing from rng. logger may be nil.
func NewPlanGenerator(cfg *models.PlannerConfig, rng RandomSource, logger *zap.Logger) PlanGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &planGenerator{cfg: cfg, rng: rng, logger: logger}
}

// planningPass is the mutable state threaded through the slots of one run.
type planningPass struct {
	tasks       []*models.Task
	used        []bool
	usedSupport int
	current     models.Bucket
}

// Generate fills slots 1..blocks_per_day in order. Done blocks of an
// existing plan are carried over untouched; every other slot is filled by
// preemption, by sampling or with a placeholder. The slot configuration is
// validated before any block is produced.
func (g *planGenerator) Generate(req PlanRequest) (*PlanResult, error) {
	focus, err := NewFocusPolicy(g.cfg.BlocksPerDay, g.cfg.Slots)
	if err != nil {
		return nil, fmt.Errorf("generating plan: %w", err)
	}
	if req.State == nil {
		return nil, errors.New("generating plan: weekly state is required")
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return nil, fmt.Errorf("generating plan: date %q must be YYYY-MM-DD", req.Date)
	}

	pass := &planningPass{
		tasks:   make([]*models.Task, len(req.Tasks)),
		used:    make([]bool, len(req.Tasks)),
		current: req.State.CurrentBucket,
	}
	for i := range req.Tasks {
		t := req.Tasks[i]
		pass.tasks[i] = &t
	}

	carried := make(map[int]models.Block)
	if req.Existing != nil {
		for _, b := range req.Existing.Blocks {
			if b.Completed() {
				carried[b.Block] = b
				pass.markBlockTaskUsed(b, focus)
			}
		}
	}

	sampler := &Sampler{
		Laplace: g.cfg.Laplace,
		Alpha:   g.cfg.RatioBiasAlpha,
		Focus:   focus,
		Rand:    g.rng,
	}
	realized := Distribution(req.State.RealizedShare())
	targets := Distribution(g.cfg.TargetVector())
	weights := ScoreWeights{Beta: g.cfg.Beta, Gamma: g.cfg.Gamma}

	result := &PlanResult{Plan: &models.Plan{Date: req.Date}}
	for slot := 1; slot <= g.cfg.BlocksPerDay; slot++ {
		if b, ok := carried[slot]; ok {
			if b.Bucket == models.BucketSupport.String() {
				pass.usedSupport++
			}
			result.Plan.Blocks = append(result.Plan.Blocks, b)
			result.CarriedOver++
			continue
		}

		name := focus.Name(slot)
		if t := SelectPreempt(pass.available(), PreemptOptions{
			Weights:          weights,
			UrgentThreshold:  g.cfg.UrgentThreshold,
			SupportThreshold: g.cfg.SupportThreshold,
			AllowSupport:     g.cfg.AllowSupportPreempt,
			SupportBudget:    g.cfg.SupportBudget,
			UsedSupport:      pass.usedSupport,
		}); t != nil {
			pass.markUsed(t)
			if t.PlanningBucket() == models.BucketSupport {
				pass.usedSupport++
			}
			result.Plan.Blocks = append(result.Plan.Blocks, taskBlock(slot, name, t, weights))
			result.Preempted++
			g.logger.Debug("slot preempted",
				zap.Int("slot", slot), zap.String("bucket", t.Bucket), zap.Int("task_id", t.ID))
			continue
		}

		drawn, dist := sampler.SampleNextBucket(pass.current, &req.State.Transitions, realized, targets, slot)
		result.Draws++

		t := pass.best(drawn, weights)
		if t == nil {
			for _, b := range fallbackOrder(dist, drawn) {
				if t = pass.best(b, weights); t != nil {
					result.Fallbacks++
					break
				}
			}
		}

		if t == nil {
			result.Plan.Blocks = append(result.Plan.Blocks, models.Block{
				Block:  slot,
				Bucket: drawn.String(),
				Title:  name + ": No tasks available",
				Status: models.BlockPlanned,
			})
			result.Placeholders++
			pass.current = drawn
			g.logger.Debug("slot placeholder", zap.Int("slot", slot), zap.Stringer("bucket", drawn))
			continue
		}

		pass.markUsed(t)
		result.Plan.Blocks = append(result.Plan.Blocks, taskBlock(slot, name, t, weights))
		result.Sampled++
		pass.current = t.PlanningBucket()
		g.logger.Debug("slot sampled",
			zap.Int("slot", slot), zap.Stringer("drawn", drawn),
			zap.String("bucket", t.Bucket), zap.Int("task_id", t.ID))
	}

	return result, nil
}

func taskBlock(slot int, slotName string, t *models.Task, w ScoreWeights) models.Block {
	return models.Block{
		Block:         slot,
		Bucket:        t.Bucket,
		Title:         fmt.Sprintf("%s: %s", slotName, t.Title),
		ExpectedScore: roundScore(Score(t, w)),
		Status:        models.BlockPlanned,
		TaskID:        t.ID,
	}
}

// markBlockTaskUsed seeds the used set from a carried-over block. The task is
// found by id when recorded, else by its title with or without the slot
// prefix.
func (p *planningPass) markBlockTaskUsed(b models.Block, focus *FocusPolicy) {
	for i, t := range p.tasks {
		if p.used[i] {
			continue
		}
		if b.TaskID != 0 {
			if t.ID == b.TaskID {
				p.used[i] = true
				return
			}
			continue
		}
		if b.Title == t.Title || b.Title == fmt.Sprintf("%s: %s", focus.Name(b.Block), t.Title) {
			p.used[i] = true
			return
		}
	}
}

func (p *planningPass) markUsed(t *models.Task) {
	for i := range p.tasks {
		if p.tasks[i] == t {
			p.used[i] = true
			return
		}
	}
}

// available returns the tasks not yet assigned in this run.
func (p *planningPass) available() []*models.Task {
	out := make([]*models.Task, 0, len(p.tasks))
	for i, t := range p.tasks {
		if !p.used[i] {
			out = append(out, t)
		}
	}
	return out
}

// best returns the highest-scoring unused plannable task in bucket. Ties
// keep input order.
func (p *planningPass) best(bucket models.Bucket, w ScoreWeights) *models.Task {
	var best *models.Task
	bestScore := 0.0
	for i, t := range p.tasks {
		if p.used[i] || !t.Status.Plannable() || t.PlanningBucket() != bucket {
			continue
		}
		score := Score(t, w)
		if best == nil || score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}
