package model

// NodeKind distinguishes the two node roles the engine understands.
// Ground stations have a fixed position; satellites move under a
// PositionOracle.
type NodeKind string

const (
	KindSatellite     NodeKind = "satellite"
	KindGroundStation NodeKind = "ground-station"
)

// Node is a named participant in the network. Identity is by Name,
// which must be unique and non-empty; there is no separate numeric ID.
type Node struct {
	Name string
	Kind NodeKind

	// Index is the node's position in the deterministic ordering used to
	// break routing ties (spec.md §4.4: "neighbours by ascending node
	// index"). Assigned by kb.NodeRegistry.Add in insertion order; callers
	// never set it directly.
	Index int
}
