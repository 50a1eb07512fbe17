// Package workload implements the Mode B bundle-creation process of
// spec.md §4.8: a per-second Bernoulli trial, with a fallback minimum to
// guarantee a non-empty run.
package workload

import (
	"math/rand"
	"sort"
	"time"
)

// Event is a single bundle-create instruction: create a bundle of
// SizeBytes at CreatedAt.
type Event struct {
	CreatedAt time.Time
	SizeBytes int
}

// Generator produces bundle-create events for a Mode B run.
type Generator struct {
	lambdaPerSecond float64
	msgSizeBytes    int
	fallbackMinimum int
	rng             *rand.Rand
}

// NewGenerator constructs a Generator. rng must be the run's single
// seeded source (spec.md §4.8 "all randomness from a seeded RNG"). A
// fallbackMinimum of 0 uses the spec's documented default of 100.
func NewGenerator(lambdaPerSecond float64, msgSizeBytes, fallbackMinimum int, rng *rand.Rand) *Generator {
	return &Generator{
		lambdaPerSecond: lambdaPerSecond,
		msgSizeBytes:    msgSizeBytes,
		fallbackMinimum: fallbackMinimum,
		rng:             rng,
	}
}

// Generate runs one Bernoulli trial per second over [start, stop). If no
// trial succeeds, it falls back to a minimum number of bundles spread
// uniformly across the window (spec.md §4.8 "inject a fallback minimum
// ... to guarantee non-empty runs"). Events are always returned in
// ascending CreatedAt order.
func (g *Generator) Generate(start, stop time.Time) []Event {
	var events []Event
	for t := start; t.Before(stop); t = t.Add(time.Second) {
		if g.rng.Float64() < g.lambdaPerSecond {
			events = append(events, Event{CreatedAt: t, SizeBytes: g.msgSizeBytes})
		}
	}
	if len(events) == 0 {
		events = g.fallback(start, stop)
	}
	return events
}

func (g *Generator) fallback(start, stop time.Time) []Event {
	n := g.fallbackMinimum
	if n <= 0 {
		n = 100
	}
	span := stop.Sub(start)

	events := make([]Event, n)
	for i := 0; i < n; i++ {
		offset := time.Duration(g.rng.Float64() * float64(span))
		events[i] = Event{CreatedAt: start.Add(offset), SizeBytes: g.msgSizeBytes}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events
}
