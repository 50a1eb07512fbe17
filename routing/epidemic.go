package routing

import "github.com/dtnsim/dtnsim/model"

// Epidemic forwards to every connected neighbour that is not already a
// holder (spec.md §4.4 "Epidemic").
type Epidemic struct{}

// NewHolders visits holders in their current order and each holder's
// neighbours in ascending node-index order, adding every neighbour not
// already a holder. A neighbour reachable from more than one holder in
// the same tick is only proposed once.
func (Epidemic) NewHolders(b *model.Bundle, neighboursOf NeighboursFunc, distToDest DistanceFunc) []string {
	proposed := make(map[string]struct{})
	var newHolders []string

	for _, h := range b.Holders() {
		for _, n := range neighboursOf(h) {
			if b.HasHolder(n) {
				continue
			}
			if _, already := proposed[n]; already {
				continue
			}
			proposed[n] = struct{}{}
			newHolders = append(newHolders, n)
		}
	}
	return newHolders
}
