package core

import (
	"fmt"
	"math"
	"sort"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

// defaultFeatureTarget is the Feature share assumed by the quality gate when
// no target is configured.
const defaultFeatureTarget = 0.4

// focusSuggestionThreshold is the deviation above which a rebalancing tip is
// produced.
const focusSuggestionThreshold = 0.15

type focusSlot struct {
	name      string
	duration  float64
	preferred []models.Bucket
	avoided   []models.Bucket
}

// FocusPolicy holds the per-slot names and bucket preferences of a day.
// A nil policy has no preferences and generic slot names.
type FocusPolicy struct {
	slots map[int]focusSlot
}

// NewFocusPolicy validates the slot table against blocksPerDay and resolves
// bucket names. A count mismatch or a hole in slot numbering is reported as
// ErrConfigMismatch.
func NewFocusPolicy(blocksPerDay int, slots map[int]models.SlotConfig) (*FocusPolicy, error) {
	if blocksPerDay < 1 {
		return nil, fmt.Errorf("%w: blocks_per_day %d must be at least 1", models.ErrConfigMismatch, blocksPerDay)
	}
	if len(slots) != blocksPerDay {
		return nil, fmt.Errorf("%w: blocks_per_day (%d) must match number of block_config entries (%d)",
			models.ErrConfigMismatch, blocksPerDay, len(slots))
	}

	policy := &FocusPolicy{slots: make(map[int]focusSlot, len(slots))}
	for n := 1; n <= blocksPerDay; n++ {
		sc, ok := slots[n]
		if !ok {
			return nil, fmt.Errorf("%w: block_config is missing slot %d", models.ErrConfigMismatch, n)
		}
		fs := focusSlot{name: sc.Name, duration: sc.DurationHours}
		if fs.name == "" {
			fs.name = fmt.Sprintf("Block %d", n)
		}
		if fs.duration <= 0 {
			fs.duration = 1.0
		}
		var err error
		if fs.preferred, err = parseBucketList(sc.PreferredBuckets); err != nil {
			return nil, fmt.Errorf("block_config[%d].preferred_buckets: %w", n, err)
		}
		if fs.avoided, err = parseBucketList(sc.AvoidBuckets); err != nil {
			return nil, fmt.Errorf("block_config[%d].avoid_buckets: %w", n, err)
		}
		policy.slots[n] = fs
	}
	return policy, nil
}

func parseBucketList(names []string) ([]models.Bucket, error) {
	seen := make(map[models.Bucket]bool, len(names))
	var out []models.Bucket
	for _, name := range names {
		b, err := models.ParseBucket(name)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// Slots returns the number of configured slots.
func (p *FocusPolicy) Slots() int {
	if p == nil {
		return 0
	}
	return len(p.slots)
}

// Name returns the display name of a slot.
func (p *FocusPolicy) Name(slot int) string {
	if p != nil {
		if fs, ok := p.slots[slot]; ok {
			return fs.name
		}
	}
	return fmt.Sprintf("Block %d", slot)
}

// Duration returns the slot length in hours, 1 when unset.
func (p *FocusPolicy) Duration(slot int) float64 {
	if p != nil {
		if fs, ok := p.slots[slot]; ok {
			return fs.duration
		}
	}
	return 1.0
}

// Preferred returns the buckets boosted in a slot.
func (p *FocusPolicy) Preferred(slot int) []models.Bucket {
	if p == nil {
		return nil
	}
	return p.slots[slot].preferred
}

// Avoided returns the buckets damped in a slot.
func (p *FocusPolicy) Avoided(slot int) []models.Bucket {
	if p == nil {
		return nil
	}
	return p.slots[slot].avoided
}

// QualityGateViolations checks the week's counts against the minimum
// Feature share. The threshold is truncated to whole blocks.
func QualityGateViolations(weekly models.BucketCounts, targets map[models.Bucket]float64) []string {
	total := weekly.Total()
	if total == 0 {
		return nil
	}
	featureTarget, ok := targets[models.BucketFeature]
	if !ok {
		featureTarget = defaultFeatureTarget
	}
	minFeature := int(float64(total) * featureTarget)
	if got := weekly[models.BucketFeature]; got < minFeature {
		return []string{fmt.Sprintf("Feature blocks below minimum: %d/%d", got, minFeature)}
	}
	return nil
}

// BucketDeviation is the realized minus target share of one bucket.
type BucketDeviation struct {
	Bucket    models.Bucket
	Deviation float64
}

// Deviations returns realized-target for every targeted bucket in canonical
// order. An empty week yields nil.
func Deviations(weekly models.BucketCounts, targets map[models.Bucket]float64) []BucketDeviation {
	total := weekly.Total()
	if total == 0 {
		return nil
	}
	buckets := make([]models.Bucket, 0, len(targets))
	for b := range targets {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	out := make([]BucketDeviation, 0, len(buckets))
	for _, b := range buckets {
		realized := float64(weekly[b]) / float64(total)
		out = append(out, BucketDeviation{Bucket: b, Deviation: realized - targets[b]})
	}
	return out
}

// SuggestFocusOptimization returns a rebalancing tip for the bucket that
// deviates most from its target, or "" when every deviation is within 0.15.
func SuggestFocusOptimization(weekly models.BucketCounts, targets map[models.Bucket]float64) string {
	var worst *BucketDeviation
	devs := Deviations(weekly, targets)
	for i := range devs {
		if worst == nil || math.Abs(devs[i].Deviation) > math.Abs(worst.Deviation) {
			worst = &devs[i]
		}
	}
	if worst == nil || math.Abs(worst.Deviation) <= focusSuggestionThreshold {
		return ""
	}
	if worst.Deviation < 0 {
		return fmt.Sprintf("Consider increasing %s work (%.1f%% under target)", worst.Bucket, -worst.Deviation*100)
	}
	return fmt.Sprintf("Consider reducing %s work (+%.1f%% over target)", worst.Bucket, worst.Deviation*100)
}
