// Package buffer implements the per-node storage described in spec.md
// §4.6: a byte-capacity-bounded FIFO with a configurable eviction policy.
package buffer

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/dtnsim/dtnsim/model"
)

// ErrStorageFull indicates an entry could not be admitted even after
// evicting every eligible victim: the entry alone exceeds capacity.
var ErrStorageFull = errors.New("buffer: entry exceeds capacity even when empty")

// Manager is a single node's buffer. It is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	capacityBytes float64
	usedBytes     float64
	policy        model.BufferPolicy
	rng           *rand.Rand

	entries      []model.QueueEntry
	drops        int
	admitted     float64
	droppedBytes float64
}

// NewManager constructs an empty buffer. rng must be the run's single
// seeded source (spec.md §4.6: "Random eviction MUST use the same RNG
// stream seeded at run start"); it may be nil if policy is never Random.
func NewManager(capacityBytes float64, policy model.BufferPolicy, rng *rand.Rand) *Manager {
	return &Manager{capacityBytes: capacityBytes, policy: policy, rng: rng}
}

// Admit stores entry, evicting victims per the configured policy until it
// fits. It returns ErrStorageFull if entry could not be admitted even
// after the buffer was emptied.
func (m *Manager) Admit(entry model.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	need := float64(entry.Size)
	for m.usedBytes+need > m.capacityBytes && len(m.entries) > 0 {
		victim := m.selectVictim()
		victimSize := float64(m.entries[victim].Size)
		m.removeAt(victim)
		m.drops++
		m.droppedBytes += victimSize
	}

	if m.usedBytes+need > m.capacityBytes {
		m.drops++
		m.droppedBytes += need
		return ErrStorageFull
	}

	m.entries = append(m.entries, entry)
	m.usedBytes += need
	m.admitted += need
	return nil
}

// selectVictim returns the index of the entry to evict under the
// configured policy. Callers must hold m.mu.
func (m *Manager) selectVictim() int {
	switch m.policy {
	case model.PolicyLargest:
		best := 0
		for i := 1; i < len(m.entries); i++ {
			if m.entries[i].Size > m.entries[best].Size {
				best = i
			}
		}
		return best
	case model.PolicyRandom:
		if m.rng == nil {
			return 0
		}
		return m.rng.Intn(len(m.entries))
	default: // PolicyOldest
		return 0
	}
}

// removeAt deletes the entry at index i, preserving order. Callers must
// hold m.mu.
func (m *Manager) removeAt(i int) {
	m.usedBytes -= float64(m.entries[i].Size)
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
}

// Remove deletes the entry with the given bundle ID, if present.
func (m *Manager) Remove(bundleID int) (model.QueueEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e.BundleID == bundleID {
			m.removeAt(i)
			return e, true
		}
	}
	return model.QueueEntry{}, false
}

// EvictExpired removes every entry whose TTL has lapsed as of t, returning
// how many were dropped. Expired evictions are not counted as buffer
// drops: the entry is discarded by the contact-plan scheduler's TTL
// sweep, not by capacity pressure (spec.md §4.5).
func (m *Manager) EvictExpired(t time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for i := 0; i < len(m.entries); {
		if m.entries[i].Expired(t) {
			m.removeAt(i)
			n++
			continue
		}
		i++
	}
	return n
}

// Usage returns the buffer's current occupancy and capacity in bytes.
func (m *Manager) Usage() (used, capacity float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usedBytes, m.capacityBytes
}

// Drops returns the cumulative number of entries dropped by this buffer.
func (m *Manager) Drops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}

// Admitted returns the cumulative number of bytes ever admitted to this
// buffer, independent of later removal or eviction (spec.md §6
// "byte-in... totals").
func (m *Manager) Admitted() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admitted
}

// DroppedBytes returns the cumulative number of bytes dropped by this
// buffer, whether evicted to make room for a later entry or rejected
// outright by ErrStorageFull (spec.md §6 "byte-dropped... totals").
func (m *Manager) DroppedBytes() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.droppedBytes
}

// Entries returns a snapshot of the buffer's contents in FIFO order.
func (m *Manager) Entries() []model.QueueEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.QueueEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// PeekFront returns the head of the FIFO without removing it.
func (m *Manager) PeekFront() (model.QueueEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return model.QueueEntry{}, false
	}
	return m.entries[0], true
}

// Shrink reduces the head-of-queue entry's recorded size by by bytes,
// used when a contact's byte budget runs out mid-entry (spec.md §4.5
// "partial transmission"). It reports false if the queue is empty or the
// head entry does not match bundleID.
func (m *Manager) Shrink(bundleID int, by int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 || m.entries[0].BundleID != bundleID {
		return false
	}
	m.entries[0].Size -= by
	m.usedBytes -= float64(by)
	return true
}
