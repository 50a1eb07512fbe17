package workload

import (
	"math/rand"
	"testing"
	"time"
)

func TestGenerator_ProducesEventsWhenLambdaHigh(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	stop := start.Add(10 * time.Second)

	g := NewGenerator(1.0, 512, 0, rand.New(rand.NewSource(1)))
	events := g.Generate(start, stop)

	if len(events) != 10 {
		t.Fatalf("expected a bundle every second with lambda=1, got %d", len(events))
	}
	for i, e := range events {
		if e.SizeBytes != 512 {
			t.Errorf("event %d: expected size 512, got %d", i, e.SizeBytes)
		}
	}
}

func TestGenerator_FallsBackWhenLambdaZero(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	stop := start.Add(time.Hour)

	g := NewGenerator(0, 1024, 0, rand.New(rand.NewSource(1)))
	events := g.Generate(start, stop)

	if len(events) != 100 {
		t.Fatalf("expected the documented fallback minimum of 100, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].CreatedAt.Before(events[i-1].CreatedAt) {
			t.Fatalf("expected ascending CreatedAt order, broke at index %d", i)
		}
	}
	for _, e := range events {
		if e.CreatedAt.Before(start) || e.CreatedAt.After(stop) {
			t.Fatalf("expected fallback event within [start,stop], got %v", e.CreatedAt)
		}
	}
}

func TestGenerator_CustomFallbackMinimum(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	stop := start.Add(time.Hour)

	g := NewGenerator(0, 1024, 7, rand.New(rand.NewSource(1)))
	events := g.Generate(start, stop)

	if len(events) != 7 {
		t.Fatalf("expected custom fallback minimum of 7, got %d", len(events))
	}
}

func TestGenerator_DeterministicGivenSameSeed(t *testing.T) {
	start := time.Unix(0, 0).UTC()
	stop := start.Add(time.Minute)

	a := NewGenerator(0.1, 256, 0, rand.New(rand.NewSource(42))).Generate(start, stop)
	b := NewGenerator(0.1, 256, 0, rand.New(rand.NewSource(42))).Generate(start, stop)

	if len(a) != len(b) {
		t.Fatalf("expected identical event counts for identical seeds, got %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical event %d, got %+v vs %+v", i, a[i], b[i])
		}
	}
}
