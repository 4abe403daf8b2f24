package core

import (
	"math"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// ScoreWeights are the tunable coefficients of the priority score.
// Beta penalises difficulty in the denominator; Gamma rewards it in the
// numerator when a deadline exists.
type ScoreWeights struct {
	Beta  float64
	Gamma float64
}

// Score computes the planning priority of a task. Higher is more urgent.
//
//	numerator   = urgency + impact + 0.1*age_days + sla_penalty [+ gamma*difficulty if deadline]
//	denominator = max(size, 0.5)                         if size <= 1h
//	            = max(size * (1 + beta*difficulty), 0.5) otherwise
//
// Tasks of an hour or less are exempt from the difficulty penalty.
func Score(task *models.Task, w ScoreWeights) float64 {
	numerator := float64(task.Urgency) + float64(task.Impact) + 0.1*float64(task.AgeDays) + task.SLAPenalty
	if task.HasDeadline() && *task.DeadlineDays >= 0 {
		numerator += w.Gamma * float64(task.Difficulty)
	}

	var denominator float64
	if task.Size <= 1 {
		denominator = math.Max(task.Size, 0.5)
	} else {
		denominator = math.Max(task.Size*(1+w.Beta*float64(task.Difficulty)), 0.5)
	}
	return numerator / denominator
}

// roundScore rounds to two decimals for display on blocks.
func roundScore(s float64) float64 {
	return math.Round(s*100) / 100
}
