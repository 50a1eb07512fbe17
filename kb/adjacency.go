package kb

import (
	"time"

	"github.com/dtnsim/dtnsim/geo"
	"github.com/dtnsim/dtnsim/model"
)

// Link describes one symmetric adjacency between two nodes at the time it
// was evaluated (spec.md §4.2).
type Link struct {
	A, B    string
	RangeKm float64
}

// AdjacencyEvaluator recomputes the network's contact graph from pure
// geometry on every call: there are no persistent link objects or
// activation state machine, only a stateless connected[i,j] test
// (spec.md §4.2).
type AdjacencyEvaluator struct {
	registry *NodeRegistry
	rLOSKm   float64
	phy      model.PHYProfile
}

// NewAdjacencyEvaluator builds an evaluator over the given registry. An
// rLOSKm of 0 uses geo.DefaultRLOSKm.
func NewAdjacencyEvaluator(registry *NodeRegistry, rLOSKm float64, phy model.PHYProfile) *AdjacencyEvaluator {
	return &AdjacencyEvaluator{registry: registry, rLOSKm: rLOSKm, phy: phy}
}

// Links returns every pair of nodes that is simultaneously within
// line-of-sight and within the configured PHY profile's maximum range, at
// time t. The result is deduplicated: each unordered pair appears once,
// with A always the lower-index node (spec.md §4.4 tie-break ordering).
func (a *AdjacencyEvaluator) Links(t time.Time) []Link {
	nodes := a.registry.List()
	positions := make([]geo.Vec3, len(nodes))
	for i, n := range nodes {
		pos, _ := a.registry.PositionAt(n.Name, t)
		positions[i] = pos
	}

	var links []Link
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			rangeKm := positions[i].DistanceTo(positions[j])
			if rangeKm > a.phy.MaxRangeKm {
				continue
			}
			if !geo.HasLineOfSight(positions[i], positions[j], a.rLOSKm) {
				continue
			}
			links = append(links, Link{A: nodes[i].Name, B: nodes[j].Name, RangeKm: rangeKm})
		}
	}
	return links
}

// Connected reports whether two named nodes are adjacent at t. Unknown
// node names are never connected.
func (a *AdjacencyEvaluator) Connected(nameA, nameB string, t time.Time) bool {
	na, nb := a.registry.Get(nameA), a.registry.Get(nameB)
	if na == nil || nb == nil || na.Name == nb.Name {
		return false
	}
	posA, _ := a.registry.PositionAt(nameA, t)
	posB, _ := a.registry.PositionAt(nameB, t)

	rangeKm := posA.DistanceTo(posB)
	if rangeKm > a.phy.MaxRangeKm {
		return false
	}
	return geo.HasLineOfSight(posA, posB, a.rLOSKm)
}

// Neighbours returns the names of every node adjacent to name at t,
// ordered by ascending node index (spec.md §4.4 "neighbours by ascending
// node index").
func (a *AdjacencyEvaluator) Neighbours(name string, t time.Time) []string {
	self := a.registry.Get(name)
	if self == nil {
		return nil
	}
	selfPos, _ := a.registry.PositionAt(name, t)

	var out []string
	for _, n := range a.registry.List() {
		if n.Name == name {
			continue
		}
		pos, _ := a.registry.PositionAt(n.Name, t)
		rangeKm := selfPos.DistanceTo(pos)
		if rangeKm > a.phy.MaxRangeKm {
			continue
		}
		if geo.HasLineOfSight(selfPos, pos, a.rLOSKm) {
			out = append(out, n.Name)
		}
	}
	return out
}
