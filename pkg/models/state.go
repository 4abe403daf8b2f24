package models

// WeeklyState is the persisted accumulator of the Markov transition model
// for the current week.
type WeeklyState struct {
	CurrentBucket Bucket           `yaml:"current_bucket" json:"current_bucket"`
	WeeklyBlocks  BucketCounts     `yaml:"weekly_blocks" json:"weekly_blocks"`
	Transitions   TransitionMatrix `yaml:"transitions" json:"transitions"`
	WeekStart     string           `yaml:"week_start" json:"week_start"`
}

// RealizedShare returns each bucket's fraction of the week's logged blocks.
// An empty week yields all zeros.
func (s *WeeklyState) RealizedShare() [NumBuckets]float64 {
	var share [NumBuckets]float64
	total := s.WeeklyBlocks.Total()
	if total == 0 {
		return share
	}
	for i, n := range s.WeeklyBlocks {
		share[i] = float64(n) / float64(total)
	}
	return share
}
