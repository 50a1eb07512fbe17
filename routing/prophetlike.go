package routing

import "github.com/dtnsim/dtnsim/model"

// ProphetLike forwards greedily towards the destination: each holder
// selects at most one neighbour that is strictly closer to the
// destination than itself (spec.md §4.4 "PRoPHET-like"). This is a
// distance-greedy heuristic, not the delivery-predictability algorithm
// from the PRoPHET literature; the name is kept for config compatibility
// (spec.md §9 open question).
type ProphetLike struct{}

// NewHolders applies greedySelect once per current holder, in holder
// order.
func (ProphetLike) NewHolders(b *model.Bundle, neighboursOf NeighboursFunc, distToDest DistanceFunc) []string {
	var newHolders []string
	for _, h := range b.Holders() {
		n, ok := greedySelect(h, b, neighboursOf, distToDest)
		if !ok {
			continue
		}
		newHolders = append(newHolders, n)
	}
	return newHolders
}
