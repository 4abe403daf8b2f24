package core

import "github.com/valter-silva-au/dayflow/pkg/models"

// PreemptOptions are the thresholds that let a task bypass sampling.
type PreemptOptions struct {
	Weights          ScoreWeights
	UrgentThreshold  float64
	SupportThreshold float64
	AllowSupport     bool
	SupportBudget    int
	// UsedSupport is how many Support slots today already consumed.
	UsedSupport int
}

// SelectPreempt returns the highest-scoring task that qualifies for
// preemption, or nil. Urgent tasks qualify at or above UrgentThreshold.
// Support tasks qualify at or above SupportThreshold while the daily budget
// has room. Done tasks never qualify. Ties keep input order.
func SelectPreempt(tasks []*models.Task, opts PreemptOptions) *models.Task {
	var best *models.Task
	bestScore := 0.0
	for _, t := range tasks {
		if t.Done() {
			continue
		}
		score := Score(t, opts.Weights)
		if !qualifies(t, score, opts) {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

func qualifies(t *models.Task, score float64, opts PreemptOptions) bool {
	switch t.PlanningBucket() {
	case models.BucketUrgent:
		return score >= opts.UrgentThreshold
	case models.BucketSupport:
		return opts.AllowSupport && opts.UsedSupport < opts.SupportBudget && score >= opts.SupportThreshold
	default:
		return false
	}
}
