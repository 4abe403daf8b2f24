package core

import (
	"math"
	"sort"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// Distribution is a weight or probability per planning bucket.
type Distribution [models.NumBuckets]float64

// Sum returns the total weight.
func (d Distribution) Sum() float64 {
	total := 0.0
	for _, w := range d {
		total += w
	}
	return total
}

// Normalize scales d so it sums to 1. A zero vector becomes uniform.
func Normalize(d Distribution) Distribution {
	total := d.Sum()
	var out Distribution
	if total <= 0 {
		for i := range out {
			out[i] = 1.0 / float64(models.NumBuckets)
		}
		return out
	}
	for i, w := range d {
		out[i] = w / total
	}
	return out
}

// ApplyRatioBias scales each probability by 2^(-alpha*(realized-target)).
// Buckets under their weekly target are boosted, those over are damped.
// Buckets without a target use 0.
func ApplyRatioBias(p, realized, targets Distribution, alpha float64) Distribution {
	var out Distribution
	for i := range p {
		diff := realized[i] - targets[i]
		out[i] = p[i] * math.Exp2(-alpha*diff)
	}
	return out
}

// Focus multipliers applied to preferred and avoided buckets of a slot.
const (
	preferredFactor = 1.3
	avoidedFactor   = 0.4
)

// ApplyFocusBias multiplies the slot's preferred buckets by 1.3 and its
// avoided buckets by 0.4. A bucket listed as both gets both factors.
func ApplyFocusBias(p Distribution, slot int, focus *FocusPolicy) Distribution {
	out := p
	for _, b := range focus.Preferred(slot) {
		out[b] *= preferredFactor
	}
	for _, b := range focus.Avoided(slot) {
		out[b] *= avoidedFactor
	}
	return out
}

// RandomSource yields uniform draws in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Sampler draws the next planning bucket from the transition model.
type Sampler struct {
	Laplace float64
	Alpha   float64
	Focus   *FocusPolicy
	Rand    RandomSource
}

// NextDistribution computes the post-bias probabilities for the bucket
// following current in the given slot:
//
//  1. add laplace to every cell of current's row
//  2. normalize
//  3. ratio bias toward the weekly targets
//  4. focus bias for the slot
//  5. normalize
func (s *Sampler) NextDistribution(current models.Bucket, m *models.TransitionMatrix, realized, targets Distribution, slot int) Distribution {
	row := Distribution(m.Row(current))
	for i := range row {
		row[i] += s.Laplace
	}
	p := Normalize(row)
	p = ApplyRatioBias(p, realized, targets, s.Alpha)
	p = ApplyFocusBias(p, slot, s.Focus)
	return Normalize(p)
}

// SampleNextBucket draws one bucket and returns it together with the
// distribution it was drawn from. Exactly one random number is consumed.
func (s *Sampler) SampleNextBucket(current models.Bucket, m *models.TransitionMatrix, realized, targets Distribution, slot int) (models.Bucket, Distribution) {
	p := s.NextDistribution(current, m, realized, targets, slot)
	return Draw(p, s.Rand.Float64()), p
}

// Draw inverts the cumulative distribution of p at u. If rounding leaves u
// past the last cumulative value the last bucket with positive weight wins.
func Draw(p Distribution, u float64) models.Bucket {
	cum := 0.0
	last := models.Bucket(0)
	for i, w := range p {
		if w <= 0 {
			continue
		}
		last = models.Bucket(i)
		cum += w
		if u < cum {
			return models.Bucket(i)
		}
	}
	return last
}

// fallbackOrder lists every bucket except tried by descending probability,
// keeping canonical order among equal probabilities.
func fallbackOrder(p Distribution, tried models.Bucket) []models.Bucket {
	order := make([]models.Bucket, 0, models.NumBuckets-1)
	for _, b := range models.AllBuckets() {
		if b != tried {
			order = append(order, b)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return p[order[i]] > p[order[j]]
	})
	return order
}
