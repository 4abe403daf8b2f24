package core

import (
	"math"
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/dayflow/pkg/models"
)

func TestNormalize(t *testing.T) {
	p := Normalize(Distribution{1, 3})
	if p[0] != 0.25 || p[1] != 0.75 {
		t.Errorf("Normalize = %v", p)
	}

	uniform := Normalize(Distribution{})
	for i, v := range uniform {
		if math.Abs(v-1.0/float64(models.NumBuckets)) > 1e-12 {
			t.Errorf("uniform[%d] = %v", i, v)
		}
	}
}

func TestProperty_NormalizeSumsToOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var d Distribution
		for i := range d {
			d[i] = rapid.Float64Range(0, 100).Draw(rt, "w")
		}
		p := Normalize(d)
		if math.Abs(p.Sum()-1) > 1e-9 {
			rt.Fatalf("sum = %v", p.Sum())
		}
		for _, v := range p {
			if v < 0 {
				rt.Fatalf("negative probability %v", v)
			}
		}
	})
}

// With alpha > 0 a bucket below target gains relative weight and a bucket
// above target loses it, compared with a bucket exactly at target.
func TestProperty_RatioBiasDirection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		alpha := rapid.Float64Range(0.01, 3).Draw(rt, "alpha")
		var p Distribution
		for i := range p {
			p[i] = rapid.Float64Range(0.01, 1).Draw(rt, "p")
		}
		var realized, targets Distribution
		targets[0], realized[0] = 0.4, 0.4-rapid.Float64Range(0.01, 0.4).Draw(rt, "under")
		targets[1], realized[1] = 0.2, 0.2+rapid.Float64Range(0.01, 0.8).Draw(rt, "over")
		targets[2], realized[2] = 0.1, 0.1

		biased := ApplyRatioBias(p, realized, targets, alpha)
		before := p[0] / p[2]
		after := biased[0] / biased[2]
		if !(after > before) {
			rt.Fatalf("under-target bucket not boosted: %v -> %v", before, after)
		}
		before = p[1] / p[2]
		after = biased[1] / biased[2]
		if !(after < before) {
			rt.Fatalf("over-target bucket not damped: %v -> %v", before, after)
		}
		if biased[2] != p[2] {
			rt.Fatalf("on-target bucket changed: %v -> %v", p[2], biased[2])
		}
	})
}

func TestApplyFocusBias(t *testing.T) {
	focus, err := NewFocusPolicy(1, map[int]models.SlotConfig{
		1: {Name: "Deep", PreferredBuckets: []string{"Feature"}, AvoidBuckets: []string{"support"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var p Distribution
	for i := range p {
		p[i] = 1
	}
	out := ApplyFocusBias(p, 1, focus)
	if out[models.BucketFeature] != 1.3 {
		t.Errorf("preferred = %v, want 1.3", out[models.BucketFeature])
	}
	if out[models.BucketSupport] != 0.4 {
		t.Errorf("avoided = %v, want 0.4", out[models.BucketSupport])
	}
	if out[models.BucketBug] != 1 {
		t.Errorf("neutral = %v, want 1", out[models.BucketBug])
	}

	if got := ApplyFocusBias(p, 1, nil); got != p {
		t.Errorf("nil policy changed the distribution: %v", got)
	}
}

func TestDraw(t *testing.T) {
	p := Distribution{0.5, 0, 0.25, 0.25}
	tests := []struct {
		u    float64
		want models.Bucket
	}{
		{0, models.BucketFeature},
		{0.49, models.BucketFeature},
		{0.5, models.BucketRnD},
		{0.74, models.BucketRnD},
		{0.75, models.BucketDocs},
		{0.999, models.BucketDocs},
		{1.5, models.BucketDocs},
	}
	for _, tt := range tests {
		if got := Draw(p, tt.u); got != tt.want {
			t.Errorf("Draw(%v) = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestSampler_NextDistribution(t *testing.T) {
	s := &Sampler{Laplace: 1, Alpha: 0}
	var m models.TransitionMatrix
	m[models.BucketFeature][models.BucketBug] = 8

	p := s.NextDistribution(models.BucketFeature, &m, Distribution{}, Distribution{}, 1)
	if math.Abs(p.Sum()-1) > 1e-9 {
		t.Fatalf("sum = %v", p.Sum())
	}
	// Row is 1 everywhere plus 8 on Bug: 9/16 and 1/16.
	if math.Abs(p[models.BucketBug]-9.0/16) > 1e-12 {
		t.Errorf("p[Bug] = %v, want %v", p[models.BucketBug], 9.0/16)
	}
	if math.Abs(p[models.BucketChaos]-1.0/16) > 1e-12 {
		t.Errorf("p[Chaos] = %v, want %v", p[models.BucketChaos], 1.0/16)
	}
}

func TestSampler_SampleNextBucketConsumesOneDraw(t *testing.T) {
	rng := &constRand{value: 0.99}
	s := &Sampler{Laplace: 1.5, Alpha: 1.2, Rand: rng}
	var m models.TransitionMatrix
	b, p := s.SampleNextBucket(models.BucketFeature, &m, Distribution{}, Distribution{}, 1)
	if rng.calls != 1 {
		t.Errorf("draws = %d, want 1", rng.calls)
	}
	if b != models.BucketChaos {
		t.Errorf("bucket = %v, want Chaos for u near 1", b)
	}
	if math.Abs(p.Sum()-1) > 1e-9 {
		t.Errorf("sum = %v", p.Sum())
	}
}

func TestFallbackOrder(t *testing.T) {
	p := Distribution{0.1, 0.3, 0.1, 0.2, 0.1, 0.05, 0.1, 0.05}
	got := fallbackOrder(p, models.BucketBug)
	want := []models.Bucket{
		models.BucketDocs,
		models.BucketFeature, models.BucketRnD, models.BucketReview, models.BucketUrgent,
		models.BucketSupport, models.BucketChaos,
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
