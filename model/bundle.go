package model

import "time"

// RoutingMode selects the Mode A forwarding strategy for a bundle.
// spec.md §4.4.
type RoutingMode string

const (
	RoutingEpidemic     RoutingMode = "Epidemic"
	RoutingProphetLike  RoutingMode = "PRoPHET"
	RoutingSprayAndWait RoutingMode = "SprayAndWait"
)

// ResolveRoutingMode maps an unrecognised tag to Epidemic, per spec.md
// §6: "unknown ⇒ Epidemic fallback".
func ResolveRoutingMode(tag string) RoutingMode {
	switch RoutingMode(tag) {
	case RoutingEpidemic, RoutingProphetLike, RoutingSprayAndWait:
		return RoutingMode(tag)
	default:
		return RoutingEpidemic
	}
}

// Bundle is the DTN payload unit described in spec.md §3. Holders is
// kept as both a set (membership) and an insertion-ordered slice
// (deterministic iteration for routing — spec.md §9 "stable iteration
// order... canonicalise by node index"), so callers should always add
// holders through AddHolder rather than touching the map directly.
type Bundle struct {
	ID          int
	Source      string
	Destination string
	SizeBytes   int
	ReleaseTime time.Time
	TTLSeconds  int // 0 disables TTL
	MaxCopies   int // 0 = unlimited
	CopiesUsed  int

	holderSet   map[string]struct{}
	holderOrder []string

	Hops int

	Born        bool
	Delivered   bool
	DeliveredAt time.Time
	Expired     bool
	ExpiredAt   time.Time
}

// NewBundle constructs a not-yet-born bundle. Holders are populated at
// Birth, not here (spec.md §4.4 "Bundle birth").
func NewBundle(id int, source, destination string, sizeBytes int, releaseTime time.Time, ttlSeconds, maxCopies int) *Bundle {
	return &Bundle{
		ID:          id,
		Source:      source,
		Destination: destination,
		SizeBytes:   sizeBytes,
		ReleaseTime: releaseTime,
		TTLSeconds:  ttlSeconds,
		MaxCopies:   maxCopies,
		holderSet:   make(map[string]struct{}),
	}
}

// Birth transitions a bundle into the born state at tick time t: the
// source becomes the sole holder and, for Spray routing, counts as the
// first used copy (spec.md §4.4).
func (b *Bundle) Birth(t time.Time) {
	if b.Born {
		return
	}
	b.Born = true
	b.AddHolder(b.Source)
	if b.MaxCopies > 0 {
		b.CopiesUsed = 1
	}
}

// ShouldBeBorn reports whether the bundle is not yet born and t has
// reached its releaseTime.
func (b *Bundle) ShouldBeBorn(t time.Time) bool {
	return !b.Born && !t.Before(b.ReleaseTime)
}

// Finalised reports whether the bundle can no longer change state.
func (b *Bundle) Finalised() bool {
	return b.Delivered || b.Expired
}

// HasHolder reports set membership.
func (b *Bundle) HasHolder(name string) bool {
	_, ok := b.holderSet[name]
	return ok
}

// Holders returns holders in deterministic insertion order. Callers
// must not mutate the returned slice.
func (b *Bundle) Holders() []string {
	return b.holderOrder
}

// HolderCount reports the number of distinct holders.
func (b *Bundle) HolderCount() int {
	return len(b.holderOrder)
}

// AddHolder adds name to the holder set if absent, incrementing Hops
// exactly once per genuinely new holder (spec.md §3 invariant 4:
// "hops ≥ |holders| − 1"; §4.4 "Hops are counted once per new (h,n)
// addition"). It returns true iff name was newly added.
func (b *Bundle) AddHolder(name string) bool {
	if _, ok := b.holderSet[name]; ok {
		return false
	}
	b.holderSet[name] = struct{}{}
	b.holderOrder = append(b.holderOrder, name)
	if len(b.holderOrder) > 1 {
		b.Hops++
	}
	return true
}

// CheckDelivery marks the bundle delivered at t if the destination is a
// holder and it has not already been finalised (spec.md §4.4 "Delivery
// check").
func (b *Bundle) CheckDelivery(t time.Time) {
	if b.Finalised() {
		return
	}
	if b.HasHolder(b.Destination) {
		b.Delivered = true
		b.DeliveredAt = t
	}
}

// CheckExpiry transitions the bundle to expired at t if its TTL (when
// enabled) has been exceeded since its releaseTime (spec.md §4.4 "TTL").
func (b *Bundle) CheckExpiry(t time.Time) {
	if b.Finalised() || !b.Born || b.TTLSeconds <= 0 {
		return
	}
	if t.Sub(b.ReleaseTime) > time.Duration(b.TTLSeconds)*time.Second {
		b.Expired = true
		b.ExpiredAt = t
	}
}

// Outcome classifies the bundle's terminal state for reporting
// (spec.md §6 "Bundle report").
type Outcome string

const (
	OutcomeDelivered    Outcome = "delivered"
	OutcomeExpired      Outcome = "expired"
	OutcomeNotDelivered Outcome = "not-delivered"
	OutcomeNotSimulated Outcome = "not-simulated"
)

// ClassifyOutcome implements spec.md §8 invariant 1: exactly one of the
// four outcomes applies.
func (b *Bundle) ClassifyOutcome(simulationEnd time.Time) Outcome {
	switch {
	case b.Delivered:
		return OutcomeDelivered
	case b.Expired:
		return OutcomeExpired
	case b.ReleaseTime.After(simulationEnd):
		return OutcomeNotSimulated
	default:
		return OutcomeNotDelivered
	}
}
