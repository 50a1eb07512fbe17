package contactplan

import (
	"time"

	"github.com/dtnsim/dtnsim/buffer"
	"github.com/dtnsim/dtnsim/model"
)

// DeliveryFunc is invoked once per bundle that is actually delivered
// (duplicates of an already-delivered bundle are suppressed before this
// is called).
type DeliveryFunc func(record model.DeliveryRecord)

// Scheduler replays a PlanSource's windows against a single source
// buffer and one buffer per satellite, implementing spec.md §4.5's three
// phases.
type Scheduler struct {
	source       *buffer.Manager
	satellites   map[string]*buffer.Manager
	newSatBuffer func() *buffer.Manager

	minDwell  time.Duration
	arqFactor float64

	deliveredIDs  map[int]struct{}
	onDelivery    DeliveryFunc
	ttlDrops      int
	dupSuppressed int
	airBytes      float64
}

// NewScheduler constructs a Scheduler. newSatBuffer lazily creates a
// per-satellite buffer.Manager the first time that satellite is seen,
// so every satellite gets its own capacity and its own draw against the
// shared seeded RNG (spec.md §4.6).
func NewScheduler(source *buffer.Manager, newSatBuffer func() *buffer.Manager, minDwell time.Duration, arqFactor float64, onDelivery DeliveryFunc) *Scheduler {
	return &Scheduler{
		source:       source,
		satellites:   make(map[string]*buffer.Manager),
		newSatBuffer: newSatBuffer,
		minDwell:     minDwell,
		arqFactor:    arqFactor,
		deliveredIDs: make(map[int]struct{}),
		onDelivery:   onDelivery,
	}
}

func (s *Scheduler) satelliteBuffer(name string) *buffer.Manager {
	if b, ok := s.satellites[name]; ok {
		return b
	}
	b := s.newSatBuffer()
	s.satellites[name] = b
	return b
}

// TTLDrops, DupSuppressed and AirBytes report the scheduler's running
// totals (spec.md §6 aggregate statistics).
func (s *Scheduler) TTLDrops() int      { return s.ttlDrops }
func (s *Scheduler) DupSuppressed() int { return s.dupSuppressed }
func (s *Scheduler) AirBytes() float64  { return s.airBytes }

// SourceStats reports the source buffer's cumulative bytes-in and
// byte-dropped totals (spec.md §6 "source-buffer byte-in and
// byte-dropped totals").
func (s *Scheduler) SourceStats() (bytesIn, bytesDropped float64) {
	return s.source.Admitted(), s.source.DroppedBytes()
}

// SatelliteStats summarises one satellite buffer's cumulative bytes-in
// and byte-dropped totals, plus the raw drop count.
type SatelliteStats struct {
	BytesIn      float64
	BytesDropped float64
	Drops        int
}

// SatelliteStats reports per-satellite byte-in and byte-dropped totals
// for every satellite buffer created so far (spec.md §6 "per-satellite
// byte-in and byte-dropped totals").
func (s *Scheduler) SatelliteStats() map[string]SatelliteStats {
	out := make(map[string]SatelliteStats, len(s.satellites))
	for name, buf := range s.satellites {
		out[name] = SatelliteStats{BytesIn: buf.Admitted(), BytesDropped: buf.DroppedBytes(), Drops: buf.Drops()}
	}
	return out
}

// Process replays every window from src in ascending start order.
func (s *Scheduler) Process(src PlanSource) {
	for _, w := range src.Windows() {
		s.processWindow(w)
	}
}

func (s *Scheduler) processWindow(w model.ContactWindow) {
	satBuf := s.satelliteBuffer(w.Satellite)

	// Phase 1 — TTL sweep: both the source and this window's satellite
	// buffer are swept relative to windowStart.
	s.ttlDrops += s.source.EvictExpired(w.Start)
	s.ttlDrops += satBuf.EvictExpired(w.Start)

	switch w.Link {
	case model.LinkUplink:
		s.processUplink(w, satBuf)
	case model.LinkDownlink:
		s.processDownlink(w, satBuf)
	}
}

func (s *Scheduler) processUplink(w model.ContactWindow, satBuf *buffer.Manager) {
	total, _ := s.source.Usage()
	budget := total
	if w.CapacityBytes < budget {
		budget = w.CapacityBytes
	}

	var sentBytes float64
	for budget > 0 {
		head, ok := s.source.PeekFront()
		if !ok {
			break
		}
		sz := float64(head.Size)
		cursor := w.Start.Add(secondsToDuration(sentBytes, w.RateBytesPerSecond))

		if sz > budget {
			// Partial transmission: send what the budget allows and
			// leave the remainder queued for the next contact.
			sent := int(budget)
			s.source.Shrink(head.BundleID, sent)
			s.airBytes += float64(sent) * s.arqFactor
			return
		}

		s.source.Remove(head.BundleID)
		txStart := maxTime(cursor, head.CreatedAt)
		tArr := txStart.Add(secondsToDuration(sz, w.RateBytesPerSecond)).Add(time.Duration(w.PropagationDelaySeconds * float64(time.Second)))

		ttlDeadline := head.CreatedAt.Add(time.Duration(head.TTLRemaining) * time.Second)
		if head.TTLRemaining > 0 && tArr.After(ttlDeadline) {
			s.ttlDrops++
		} else {
			readyAt := tArr
			dwellFloor := w.End.Add(s.minDwell)
			if dwellFloor.After(readyAt) {
				readyAt = dwellFloor
			}
			entry := model.QueueEntry{
				BundleID:     head.BundleID,
				Destination:  head.Destination,
				CreatedAt:    head.CreatedAt,
				Size:         head.Size,
				TTLRemaining: head.TTLRemaining,
				ReadyAt:      readyAt,
			}
			_ = satBuf.Admit(entry) // buffer-drop on overflow is tracked by satBuf.Drops()
		}

		sentBytes += sz
		budget -= sz
		s.airBytes += sz * s.arqFactor
	}
}

func (s *Scheduler) processDownlink(w model.ContactWindow, satBuf *buffer.Manager) {
	total, _ := satBuf.Usage()
	budget := total
	if w.CapacityBytes < budget {
		budget = w.CapacityBytes
	}

	var sentBytes float64
	for budget > 0 {
		head, ok := satBuf.PeekFront()
		if !ok {
			break
		}
		// FIFO discipline: an ineligible head halts the downlink scan
		// entirely, even if later entries would be eligible.
		if head.ReadyAt.After(w.Start) {
			return
		}

		sz := float64(head.Size)
		cursor := w.Start.Add(secondsToDuration(sentBytes, w.RateBytesPerSecond))

		if sz > budget {
			sent := int(budget)
			satBuf.Shrink(head.BundleID, sent)
			s.airBytes += float64(sent) * s.arqFactor
			return
		}

		satBuf.Remove(head.BundleID)
		txStart := maxTime(cursor, head.ReadyAt)
		tDel := txStart.Add(secondsToDuration(sz, w.RateBytesPerSecond)).Add(time.Duration(w.PropagationDelaySeconds * float64(time.Second)))

		ttlDeadline := head.CreatedAt.Add(time.Duration(head.TTLRemaining) * time.Second)
		switch {
		case head.TTLRemaining > 0 && tDel.After(ttlDeadline):
			s.ttlDrops++
		case s.delivered(head.BundleID):
			s.dupSuppressed++
		default:
			s.deliveredIDs[head.BundleID] = struct{}{}
			if s.onDelivery != nil {
				s.onDelivery(model.DeliveryRecord{
					BundleID:    head.BundleID,
					CreatedAt:   head.CreatedAt,
					DeliveredAt: tDel,
					SizeBytes:   head.Size,
				})
			}
		}

		sentBytes += sz
		budget -= sz
		s.airBytes += sz * s.arqFactor
	}
}

func (s *Scheduler) delivered(bundleID int) bool {
	_, ok := s.deliveredIDs[bundleID]
	return ok
}

func secondsToDuration(bytesCount, ratePerSecond float64) time.Duration {
	if ratePerSecond <= 0 {
		return 0
	}
	return time.Duration(bytesCount / ratePerSecond * float64(time.Second))
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
