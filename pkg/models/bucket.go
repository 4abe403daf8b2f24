package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket is a planning bucket: one of the seven standard work categories or
// the Chaos catch-all. All transition-model math is done over Buckets.
type Bucket int

const (
	BucketFeature Bucket = iota
	BucketBug
	BucketRnD
	BucketDocs
	BucketReview
	BucketSupport
	BucketUrgent
	BucketChaos

	// NumBuckets is the size of the planning vocabulary.
	NumBuckets = int(BucketChaos) + 1
)

var bucketNames = [NumBuckets]string{
	BucketFeature: "Feature",
	BucketBug:     "Bug",
	BucketRnD:     "R&D",
	BucketDocs:    "Docs",
	BucketReview:  "Review",
	BucketSupport: "Support",
	BucketUrgent:  "Urgent",
	BucketChaos:   "Chaos",
}

// AllBuckets returns every planning bucket in canonical order.
func AllBuckets() []Bucket {
	out := make([]Bucket, NumBuckets)
	for i := range out {
		out[i] = Bucket(i)
	}
	return out
}

func (b Bucket) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return bucketNames[b]
}

// Valid reports whether b is inside the planning vocabulary.
func (b Bucket) Valid() bool {
	return b >= 0 && int(b) < NumBuckets
}

// Standard reports whether b is one of the seven named categories (not Chaos).
func (b Bucket) Standard() bool {
	return b.Valid() && b != BucketChaos
}

// ToPlanningBucket maps a free-form display bucket to its planning bucket.
// Only exact standard names pass through; everything else is Chaos.
func ToPlanningBucket(raw string) Bucket {
	for i := 0; i < int(BucketChaos); i++ {
		if bucketNames[i] == raw {
			return Bucket(i)
		}
	}
	return BucketChaos
}

// ParseBucket resolves a planning bucket name, ignoring case. Unlike
// ToPlanningBucket it fails on unknown names; it is used for configuration,
// where keys may have been lower-cased by the loader.
func ParseBucket(name string) (Bucket, error) {
	trimmed := strings.TrimSpace(name)
	for i, n := range bucketNames {
		if strings.EqualFold(n, trimmed) {
			return Bucket(i), nil
		}
	}
	return 0, fmt.Errorf("unknown planning bucket %q", name)
}

func (b Bucket) MarshalYAML() (interface{}, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("marshaling invalid bucket %d", int(b))
	}
	return b.String(), nil
}

func (b *Bucket) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseBucket(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b Bucket) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("marshaling invalid bucket %d", int(b))
	}
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(text []byte) error {
	parsed, err := ParseBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// BucketCounts holds one counter per planning bucket. It is always dense:
// every bucket has a value, zero by default.
type BucketCounts [NumBuckets]int

// Total returns the sum of all counters.
func (c BucketCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// AsMap returns the counts keyed by bucket name.
func (c BucketCounts) AsMap() map[string]int {
	out := make(map[string]int, NumBuckets)
	for i, n := range c {
		out[bucketNames[i]] = n
	}
	return out
}

func (c BucketCounts) MarshalYAML() (interface{}, error) {
	return c.AsMap(), nil
}

func (c BucketCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.AsMap())
}

func (c *BucketCounts) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]int
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var out BucketCounts
	for name, n := range raw {
		b, err := ParseBucket(name)
		if err != nil {
			return fmt.Errorf("weekly_blocks: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("weekly_blocks: negative count %d for %s", n, name)
		}
		out[b] = n
	}
	*c = out
	return nil
}

// TransitionMatrix is the dense from→to weight table of the Markov model.
type TransitionMatrix [NumBuckets][NumBuckets]float64

// Row returns a copy of the outgoing weights of from.
func (m *TransitionMatrix) Row(from Bucket) [NumBuckets]float64 {
	return m[from]
}

// AsMap returns the matrix as nested name-keyed maps.
func (m TransitionMatrix) AsMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, NumBuckets)
	for i := range m {
		row := make(map[string]float64, NumBuckets)
		for j, w := range m[i] {
			row[bucketNames[j]] = w
		}
		out[bucketNames[i]] = row
	}
	return out
}

func (m TransitionMatrix) MarshalYAML() (interface{}, error) {
	return m.AsMap(), nil
}

func (m TransitionMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.AsMap())
}

func (m *TransitionMatrix) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]map[string]float64
	if err := value.Decode(&raw); err != nil {
		return err
	}
	var out TransitionMatrix
	for fromName, row := range raw {
		from, err := ParseBucket(fromName)
		if err != nil {
			return fmt.Errorf("transitions: %w", err)
		}
		for toName, w := range row {
			to, err := ParseBucket(toName)
			if err != nil {
				return fmt.Errorf("transitions[%s]: %w", fromName, err)
			}
			if w < 0 {
				return fmt.Errorf("transitions[%s][%s]: negative weight %v", fromName, toName, w)
			}
			out[from][to] = w
		}
	}
	*m = out
	return nil
}
