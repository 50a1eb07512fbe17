// Package ledger aggregates the per-bundle and per-contact outcomes of a
// simulation run into the persisted outputs of spec.md §6: a bundle
// report, delivery records, byte-accounting totals, and a textual log
// stream.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dtnsim/dtnsim/internal/logging"
	"github.com/dtnsim/dtnsim/internal/observability"
	"github.com/dtnsim/dtnsim/model"
)

// EventKind tags a single log-stream event, per spec.md §6's
// "t=<ISO>: bundle <id> RELEASED/forwarded/DELIVERED/EXPIRED ..." scheme.
type EventKind string

const (
	EventReleased      EventKind = "RELEASED"
	EventForwarded     EventKind = "forwarded"
	EventDelivered     EventKind = "DELIVERED"
	EventExpired       EventKind = "EXPIRED"
	EventBufferDrop    EventKind = "buffer-dropped"
	EventTTLDrop       EventKind = "ttl-dropped"
	EventDupSuppressed EventKind = "duplicate-suppressed"
)

// Event is one entry in the log stream.
type Event struct {
	Time     time.Time
	BundleID int
	Kind     EventKind
	Detail   string
}

// String renders an event in spec.md §6's textual scheme.
func (e Event) String() string {
	if e.Detail == "" {
		return fmt.Sprintf("t=%s: bundle %d %s", e.Time.Format(time.RFC3339), e.BundleID, e.Kind)
	}
	return fmt.Sprintf("t=%s: bundle %d %s %s", e.Time.Format(time.RFC3339), e.BundleID, e.Kind, e.Detail)
}

// LogFunc streams events to a consumer. Per spec.md §5/§7, callback
// failures are swallowed: log streaming is best-effort and must never
// affect simulation state.
type LogFunc func(Event) error

// Reporter accumulates bundle reports, delivery records, and byte
// counters across a run, and drives the log-stream callback.
type Reporter struct {
	mu sync.Mutex

	log       logging.Logger
	onEvent   LogFunc
	collector *observability.Collector
	routing   string

	reports      []model.BundleReport
	deliveries   []model.DeliveryRecord
	deliveredIDs map[int]struct{}

	satelliteBytesIn      map[string]float64
	satelliteBytesDropped map[string]float64
	sourceBytesIn         float64
	sourceBytesDropped    float64

	ttlDrops      int
	bufferDrops   int
	dupSuppressed int
	airBytes      float64
}

// NewReporter constructs a Reporter. collector and log may be nil; a nil
// log uses logging.Noop() and a nil collector disables Prometheus
// observation. routing labels the Collector's per-mode counters.
func NewReporter(routing string, log logging.Logger, collector *observability.Collector, onEvent LogFunc) *Reporter {
	if log == nil {
		log = logging.Noop()
	}
	return &Reporter{
		log:                   log,
		onEvent:               onEvent,
		collector:             collector,
		routing:               routing,
		deliveredIDs:          make(map[int]struct{}),
		satelliteBytesIn:      make(map[string]float64),
		satelliteBytesDropped: make(map[string]float64),
	}
}

func (r *Reporter) emit(e Event) {
	if r.onEvent == nil {
		return
	}
	if err := r.onEvent(e); err != nil {
		r.log.Warn(context.Background(), "log stream callback failed", logging.String("error", err.Error()), logging.Int("bundle_id", e.BundleID))
	}
}

// RecordRelease logs a bundle's birth.
func (r *Reporter) RecordRelease(t time.Time, bundleID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(Event{Time: t, BundleID: bundleID, Kind: EventReleased})
}

// RecordForward logs a new holder acquiring a bundle copy.
func (r *Reporter) RecordForward(t time.Time, bundleID int, holder string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit(Event{Time: t, BundleID: bundleID, Kind: EventForwarded, Detail: holder})
}

// RecordBufferDrop accounts a buffer-overflow eviction at node, and logs it.
func (r *Reporter) RecordBufferDrop(t time.Time, bundleID int, node string, isSource bool, sizeBytes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufferDrops++
	if isSource {
		r.sourceBytesDropped += float64(sizeBytes)
	} else {
		r.satelliteBytesDropped[node] += float64(sizeBytes)
	}
	if r.collector != nil {
		r.collector.BufferDrops.WithLabelValues(node).Inc()
	}
	r.emit(Event{Time: t, BundleID: bundleID, Kind: EventBufferDrop, Detail: node})
}

// RecordTTLDrop accounts a TTL-expiry drop encountered mid-transfer
// (Mode B's uplink/downlink TTL checks), distinct from the Mode A bundle
// state machine's own CheckExpiry.
func (r *Reporter) RecordTTLDrop(t time.Time, bundleID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ttlDrops++
	r.emit(Event{Time: t, BundleID: bundleID, Kind: EventTTLDrop})
}

// RecordDupSuppressed accounts a duplicate delivery attempt suppressed
// at the destination (spec.md §4.5).
func (r *Reporter) RecordDupSuppressed(t time.Time, bundleID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dupSuppressed++
	if r.collector != nil {
		r.collector.DuplicatesSuppressed.Inc()
	}
	r.emit(Event{Time: t, BundleID: bundleID, Kind: EventDupSuppressed})
}

// AddAirBytes folds transferred bytes (including ARQ overhead) into the
// run's air-byte total (spec.md §4.5 Phase 3).
func (r *Reporter) AddAirBytes(n float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.airBytes += n
	if r.collector != nil {
		r.collector.AirBytes.Add(n)
	}
}

// AddSatelliteBytesIn accounts bytes successfully uplinked to a satellite buffer.
func (r *Reporter) AddSatelliteBytesIn(node string, n float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.satelliteBytesIn[node] += n
}

// AddSourceBytesIn accounts bytes admitted to the source buffer.
func (r *Reporter) AddSourceBytesIn(n float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sourceBytesIn += n
}

// RecordDelivery appends a delivery record exactly once per bundle id
// (duplicate suppression is the caller's responsibility — Mode B's
// Scheduler already tracks deliveredIds; this guards Mode A callers
// too).
func (r *Reporter) RecordDelivery(rec model.DeliveryRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.deliveredIDs[rec.BundleID]; ok {
		return false
	}
	r.deliveredIDs[rec.BundleID] = struct{}{}
	r.deliveries = append(r.deliveries, rec)
	if r.collector != nil {
		r.collector.BundlesDelivered.WithLabelValues(r.routing).Inc()
	}
	r.emit(Event{Time: rec.DeliveredAt, BundleID: rec.BundleID, Kind: EventDelivered})
	return true
}

// Finalize computes the terminal BundleReport for a Mode A bundle,
// applying spec.md §4.7's delay-component formula when delivered, and
// appends it to the run's report set.
func (r *Reporter) Finalize(b *model.Bundle, profile model.PHYProfile, simulationEnd time.Time) model.BundleReport {
	outcome := b.ClassifyOutcome(simulationEnd)

	report := model.BundleReport{
		ID:             b.ID,
		Source:         b.Source,
		Destination:    b.Destination,
		ReleaseTime:    b.ReleaseTime,
		Outcome:        outcome,
		Hops:           b.Hops,
		PHYProfileName: profile.Name,
	}
	if b.Delivered {
		deliveredAt := b.DeliveredAt
		report.DeliveredAt = &deliveredAt
		pathDelay := deliveredAt.Sub(b.ReleaseTime).Seconds()
		phyExtra := 0.0
		if profile.DataRateBitsPerSecond > 0 {
			phyExtra = float64(b.Hops) * (float64(b.SizeBytes)*8/profile.DataRateBitsPerSecond + profile.HandshakeOverheadSeconds)
		}
		report.PathDelaySeconds = pathDelay
		report.PHYExtraSeconds = phyExtra
		report.TotalDelaySeconds = pathDelay + phyExtra
	}
	if b.Expired {
		expiredAt := b.ExpiredAt
		report.ExpiredAt = &expiredAt
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	switch outcome {
	case model.OutcomeExpired:
		if r.collector != nil {
			r.collector.BundlesExpired.WithLabelValues(r.routing).Inc()
		}
		r.emit(Event{Time: b.ExpiredAt, BundleID: b.ID, Kind: EventExpired})
	}
	return report
}

// FinalizeNotSimulated appends a BundleReport with a forced
// not-simulated outcome, for bundles in a run whose configured horizon
// never reaches simStartOffsetMinutes (spec.md §8 boundary case
// "horizonMinutes ≤ simStartOffsetMinutes: empty run; summary states
// nothing simulated"). b.ClassifyOutcome is not consulted: no tick ever
// ran, so the usual releaseTime-vs-simulationEnd comparison does not
// apply.
func (r *Reporter) FinalizeNotSimulated(b *model.Bundle, profile model.PHYProfile) model.BundleReport {
	report := model.BundleReport{
		ID:             b.ID,
		Source:         b.Source,
		Destination:    b.Destination,
		ReleaseTime:    b.ReleaseTime,
		Outcome:        model.OutcomeNotSimulated,
		Hops:           b.Hops,
		PHYProfileName: profile.Name,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
	return report
}

// Reports returns every finalised bundle report.
func (r *Reporter) Reports() []model.BundleReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.BundleReport, len(r.reports))
	copy(out, r.reports)
	return out
}

// Deliveries returns every delivery record, in the order recorded.
func (r *Reporter) Deliveries() []model.DeliveryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.DeliveryRecord, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

// Totals summarises the run's aggregate counters for §6's
// "Contact/delivery tables" output.
type Totals struct {
	TTLDrops      int
	BufferDrops   int
	DupSuppressed int
	AirBytes      float64

	SourceBytesIn      float64
	SourceBytesDropped float64

	SatelliteBytesIn      map[string]float64
	SatelliteBytesDropped map[string]float64
}

// SatelliteByteStats is one satellite buffer's cumulative byte-in and
// byte-dropped totals, as reported by a Mode B contactplan.Scheduler.
type SatelliteByteStats struct {
	BytesIn      float64
	BytesDropped float64
}

// LoadSchedulerTotals overwrites the reporter's aggregate counters with
// the final totals computed by a Mode B contactplan.Scheduler once
// Process has returned. Unlike the per-event Record*/Add* methods above,
// these arrive already cumulative: the scheduler does not expose
// per-event bundle/node detail fine enough to stream through the
// log-callback event-by-event, so Mode B's driver loads the final
// figures here in one call instead of accumulating incrementally.
func (r *Reporter) LoadSchedulerTotals(ttlDrops, dupSuppressed int, airBytes, sourceBytesIn, sourceBytesDropped float64, satellites map[string]SatelliteByteStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ttlDrops = ttlDrops
	r.dupSuppressed = dupSuppressed
	r.airBytes = airBytes
	r.sourceBytesIn = sourceBytesIn
	r.sourceBytesDropped = sourceBytesDropped

	r.satelliteBytesIn = make(map[string]float64, len(satellites))
	r.satelliteBytesDropped = make(map[string]float64, len(satellites))
	for name, s := range satellites {
		r.satelliteBytesIn[name] = s.BytesIn
		r.satelliteBytesDropped[name] = s.BytesDropped
	}

	if r.collector != nil {
		r.collector.AirBytes.Add(airBytes)
	}
}

// Totals snapshots the run's aggregate counters.
func (r *Reporter) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()

	satIn := make(map[string]float64, len(r.satelliteBytesIn))
	for k, v := range r.satelliteBytesIn {
		satIn[k] = v
	}
	satDropped := make(map[string]float64, len(r.satelliteBytesDropped))
	for k, v := range r.satelliteBytesDropped {
		satDropped[k] = v
	}

	return Totals{
		TTLDrops:              r.ttlDrops,
		BufferDrops:           r.bufferDrops,
		DupSuppressed:         r.dupSuppressed,
		AirBytes:              r.airBytes,
		SourceBytesIn:         r.sourceBytesIn,
		SourceBytesDropped:    r.sourceBytesDropped,
		SatelliteBytesIn:      satIn,
		SatelliteBytesDropped: satDropped,
	}
}
