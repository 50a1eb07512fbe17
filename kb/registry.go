package kb

import (
	"fmt"
	"sync"
	"time"

	"github.com/dtnsim/dtnsim/geo"
	"github.com/dtnsim/dtnsim/model"
)

// EventType indicates what kind of change happened in the registry.
type EventType int

const (
	EventNodeAdded EventType = iota
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type EventType
	Node model.Node
}

// NodeRegistry is an in-memory, thread-safe store of nodes and the
// position oracle driving each one. Index assignment is insertion order,
// which is what the routing deciders use to break ties deterministically
// (spec.md §4.4).
type NodeRegistry struct {
	mu sync.RWMutex

	byName  map[string]*model.Node
	oracles map[string]geo.PositionOracle
	order   []*model.Node

	subs []func(Event)
}

// NewNodeRegistry constructs an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		byName:  make(map[string]*model.Node),
		oracles: make(map[string]geo.PositionOracle),
	}
}

// Add registers a node under the given oracle. Name must be unique and
// non-empty (spec.md §3 "Node identity is by name").
func (r *NodeRegistry) Add(name string, kind model.NodeKind, oracle geo.PositionOracle) (*model.Node, error) {
	if name == "" {
		return nil, fmt.Errorf("kb: node name must not be empty")
	}
	r.mu.Lock()

	if _, exists := r.byName[name]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("kb: node %q already registered", name)
	}

	n := &model.Node{Name: name, Kind: kind, Index: len(r.order)}
	r.byName[name] = n
	r.oracles[name] = oracle
	r.order = append(r.order, n)

	event := Event{Type: EventNodeAdded, Node: *n}
	subs := append([]func(Event){}, r.subs...)
	r.mu.Unlock()

	for _, sub := range subs {
		sub(event)
	}
	return n, nil
}

// Get returns the node with the given name, or nil if not found.
func (r *NodeRegistry) Get(name string) *model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// List returns a snapshot slice of all nodes in insertion (index) order.
func (r *NodeRegistry) List() []*model.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*model.Node, len(r.order))
	copy(res, r.order)
	return res
}

// Len returns the number of registered nodes.
func (r *NodeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// PositionAt resolves a node's position at t. ok is false if name is not
// registered.
func (r *NodeRegistry) PositionAt(name string, t time.Time) (geo.Vec3, bool) {
	r.mu.RLock()
	oracle, exists := r.oracles[name]
	r.mu.RUnlock()
	if !exists {
		return geo.Vec3{}, false
	}
	return oracle.Position(t), true
}

// Subscribe registers a callback for registry events. It returns an
// unsubscribe function.
func (r *NodeRegistry) Subscribe(fn func(Event)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
	idx := len(r.subs) - 1

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if idx < 0 || idx >= len(r.subs) {
			return
		}
		r.subs = append(r.subs[:idx], r.subs[idx+1:]...)
		idx = -1
	}
}
