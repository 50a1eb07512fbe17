package kb

import (
	"sync"

	"github.com/dtnsim/dtnsim/model"
)

// BundleEventType indicates what kind of change happened to a bundle.
type BundleEventType int

const (
	BundleAdded BundleEventType = iota
	BundleDeleted
)

// BundleEvent is emitted to subscribers on bundle registry changes.
type BundleEvent struct {
	Type     BundleEventType
	BundleID int
}

// BundleRegistry is a thread-safe store of the bundles in one run,
// owning every model.Bundle for the run's duration (spec.md §3
// "Ownership and lifecycle": "Each bundle is owned by the bundle
// registry"). Iteration order is insertion order, which for RunModeA is
// ascending bundle ID. RunModeB does not use a BundleRegistry.
type BundleRegistry struct {
	mu sync.RWMutex

	byID  map[int]*model.Bundle
	order []*model.Bundle

	subs []func(BundleEvent)
}

// NewBundleRegistry constructs an empty registry.
func NewBundleRegistry() *BundleRegistry {
	return &BundleRegistry{byID: make(map[int]*model.Bundle)}
}

// Add registers b. Re-adding an existing ID replaces the pointer but
// keeps its original position in iteration order.
func (r *BundleRegistry) Add(b *model.Bundle) {
	r.mu.Lock()
	_, exists := r.byID[b.ID]
	r.byID[b.ID] = b
	if !exists {
		r.order = append(r.order, b)
	}
	subs := append([]func(BundleEvent){}, r.subs...)
	r.mu.Unlock()

	for _, sub := range subs {
		sub(BundleEvent{Type: BundleAdded, BundleID: b.ID})
	}
}

// Get returns the bundle with the given ID, or nil if not found.
func (r *BundleRegistry) Get(id int) *model.Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Delete purges a bundle from the registry. Per spec.md's "deleting a
// bundle... purges all entries with that bundleId from all queues", the
// registry only owns the bundle object; purging queue entries is the
// caller's (engine's) responsibility since queues are owned by
// buffer.Manager, not by BundleRegistry.
func (r *BundleRegistry) Delete(id int) {
	r.mu.Lock()
	if _, ok := r.byID[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byID, id)
	for i, b := range r.order {
		if b.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	subs := append([]func(BundleEvent){}, r.subs...)
	r.mu.Unlock()

	for _, sub := range subs {
		sub(BundleEvent{Type: BundleDeleted, BundleID: id})
	}
}

// List returns a snapshot slice of every bundle in insertion order.
func (r *BundleRegistry) List() []*model.Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Bundle, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered bundles.
func (r *BundleRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Subscribe registers a callback for registry events. It returns an
// unsubscribe function.
func (r *BundleRegistry) Subscribe(fn func(BundleEvent)) (unsubscribe func()) {
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
