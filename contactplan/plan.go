// Package contactplan implements spec.md §4.5's pre-materialised
// contact-plan scheduler (Mode B): a sorted sequence of directed contact
// windows is replayed against bounded per-node buffers.
package contactplan

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dtnsim/dtnsim/model"
)

// PlanSource produces the ordered sequence of contact windows a Scheduler
// replays. Ownership: the source owns every window for the run's
// duration (spec.md §3 "Ownership and lifecycle").
type PlanSource interface {
	Windows() []model.ContactWindow
}

// StaticPlanSource is a PlanSource backed by an in-memory slice, sorted
// once at construction.
type StaticPlanSource struct {
	windows []model.ContactWindow
}

// NewStaticPlanSource sorts windows by ascending start and returns a
// source over them (spec.md §4.5 "processed in ascending start").
func NewStaticPlanSource(windows []model.ContactWindow) *StaticPlanSource {
	sorted := make([]model.ContactWindow, len(windows))
	copy(sorted, windows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return &StaticPlanSource{windows: sorted}
}

// Windows returns the sorted window slice. Callers must not mutate it.
func (s *StaticPlanSource) Windows() []model.ContactWindow {
	return s.windows
}

// jsonWindow mirrors spec.md §6's serialised contact-plan schema:
// (satelliteName, linkTag, startTime, endTime, durationSeconds,
// meanElevDeg, maxElevDeg, meanRangeKm, meanRateMbps,
// rateBytesPerSecond, capacityBytes, propagationDelaySeconds).
type jsonWindow struct {
	ID                      string    `json:"id,omitempty"`
	SatelliteName           string    `json:"satelliteName"`
	GroundStationName       string    `json:"groundStationName"`
	LinkTag                 string    `json:"linkTag"`
	StartTime               time.Time `json:"startTime"`
	EndTime                 time.Time `json:"endTime"`
	DurationSeconds         float64   `json:"durationSeconds"`
	MeanElevDeg             float64   `json:"meanElevDeg"`
	MaxElevDeg              float64   `json:"maxElevDeg"`
	MeanRangeKm             float64   `json:"meanRangeKm"`
	MeanRateMbps            float64   `json:"meanRateMbps"`
	RateBytesPerSecond      float64   `json:"rateBytesPerSecond"`
	CapacityBytes           float64   `json:"capacityBytes"`
	PropagationDelaySeconds float64   `json:"propagationDelaySeconds"`
}

// LoadJSON decodes a contact plan from r. Windows without an "id" field
// are assigned a synthesised one, since the serialised schema does not
// require one.
func LoadJSON(r io.Reader) (*StaticPlanSource, error) {
	var raw []jsonWindow
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	windows := make([]model.ContactWindow, 0, len(raw))
	for _, rw := range raw {
		id := rw.ID
		if id == "" {
			id = uuid.NewString()
		}
		w := model.ContactWindow{
			ID:                      id,
			Satellite:               rw.SatelliteName,
			GroundStation:           rw.GroundStationName,
			Link:                    model.LinkDirection(rw.LinkTag),
			Start:                   rw.StartTime,
			End:                     rw.EndTime,
			Duration:                time.Duration(rw.DurationSeconds * float64(time.Second)),
			MeanElevDeg:             rw.MeanElevDeg,
			MaxElevDeg:              rw.MaxElevDeg,
			MeanRangeKm:             rw.MeanRangeKm,
			MeanRateMbps:            rw.MeanRateMbps,
			RateBytesPerSecond:      rw.RateBytesPerSecond,
			CapacityBytes:           rw.CapacityBytes,
			PropagationDelaySeconds: rw.PropagationDelaySeconds,
		}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return NewStaticPlanSource(windows), nil
}
