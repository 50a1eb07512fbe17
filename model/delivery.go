package model

import "time"

// DeliveryRecord is emitted exactly once per delivered bundle ID
// (spec.md §3 "Delivery record"; duplicate suppression at the
// destination is enforced by the caller before constructing one of
// these).
type DeliveryRecord struct {
	BundleID    int
	CreatedAt   time.Time
	DeliveredAt time.Time
	SizeBytes   int
}

// LatencySeconds is deliveredAt - createdAt.
func (d DeliveryRecord) LatencySeconds() float64 {
	return d.DeliveredAt.Sub(d.CreatedAt).Seconds()
}

// BufferPolicy selects the eviction strategy a buffer uses on overflow
// (spec.md §4.6).
type BufferPolicy string

const (
	PolicyOldest  BufferPolicy = "oldest"
	PolicyLargest BufferPolicy = "largest"
	PolicyRandom  BufferPolicy = "random"
)
