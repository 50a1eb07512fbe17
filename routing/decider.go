// Package routing implements the Mode A routing deciders of spec.md §4.4:
// given a bundle's current holder set and a connectivity snapshot, each
// decider proposes the new holders for the current tick.
package routing

import "github.com/dtnsim/dtnsim/model"

// NeighboursFunc returns a holder's connected neighbours, in ascending
// node-index order.
type NeighboursFunc func(holder string) []string

// DistanceFunc returns a node's distance to the bundle's destination.
type DistanceFunc func(node string) float64

// Decider proposes the holders a bundle should gain during the current
// tick. It never removes holders and never finalises a bundle; the caller
// commits the result via model.Bundle.AddHolder and runs the delivery and
// TTL checks afterwards.
type Decider interface {
	NewHolders(b *model.Bundle, neighboursOf NeighboursFunc, distToDest DistanceFunc) []string
}

// Resolve returns the Decider for a routing mode. Unknown modes resolve
// to Epidemic, the same fallback model.ResolveRoutingMode applies.
func Resolve(mode model.RoutingMode) Decider {
	switch mode {
	case model.RoutingProphetLike:
		return ProphetLike{}
	case model.RoutingSprayAndWait:
		return SprayAndWait{}
	default:
		return Epidemic{}
	}
}

// greedySelect implements the shared "greedy to destination" neighbour
// selection used by both ProphetLike and SprayAndWait: among h's
// neighbours that are not already holders and that are strictly closer
// to the destination than h itself, pick the closest. neighboursOf must
// already return candidates in ascending node-index order, so the first
// strictly-smallest distance seen wins ties (spec.md §4.4 "ties broken by
// lowest node index").
func greedySelect(h string, b *model.Bundle, neighboursOf NeighboursFunc, distToDest DistanceFunc) (string, bool) {
	distH := distToDest(h)
	best := ""
	bestDist := distH

	for _, n := range neighboursOf(h) {
		if b.HasHolder(n) {
			continue
		}
		dn := distToDest(n)
		if dn < bestDist {
			bestDist = dn
			best = n
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
