package routing

import "github.com/dtnsim/dtnsim/model"

// SprayAndWait implements L-copies Spray-and-Wait (spec.md §4.4): at most
// MaxCopies copies of a bundle are ever in flight. Each tick, holders take
// turns using the greedy selection until the copy budget is exhausted.
// A MaxCopies of 0 falls back to Epidemic, per spec.md's documented
// fallback.
type SprayAndWait struct{}

// NewHolders mutates b.CopiesUsed as copies are spent; the caller must
// not call this twice for the same tick.
func (s SprayAndWait) NewHolders(b *model.Bundle, neighboursOf NeighboursFunc, distToDest DistanceFunc) []string {
	if b.MaxCopies <= 0 {
		return Epidemic{}.NewHolders(b, neighboursOf, distToDest)
	}

	var newHolders []string
	for _, h := range b.Holders() {
		if b.CopiesUsed >= b.MaxCopies {
			break
		}
		n, ok := greedySelect(h, b, neighboursOf, distToDest)
		if !ok {
			continue
		}
		newHolders = append(newHolders, n)
		b.CopiesUsed++
	}
	return newHolders
}
