package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ContactCollector exposes Prometheus metrics specific to the Mode B
// contact-plan scheduler (contactplan.Scheduler).
type ContactCollector struct {
	gatherer prometheus.Gatherer

	ContactProcessingDuration prometheus.Histogram
	SatellitesInContact       prometheus.Gauge
	PartialTransmissionsTotal prometheus.Counter
	DupSuppressionRatio       prometheus.Gauge
}

// NewContactCollector registers the contact-plan scheduler's metrics against
// the provided registerer.
func NewContactCollector(reg prometheus.Registerer) (*ContactCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dtnsim_contact_processing_duration_seconds",
		Help:    "Wall-clock duration of processing a single contact window.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})
	duration, err := registerHistogram(reg, duration, "dtnsim_contact_processing_duration_seconds")
	if err != nil {
		return nil, err
	}

	satellites := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dtnsim_satellites_in_contact",
		Help: "Number of satellites with an open contact window at the current simulation time.",
	})
	satellites, err = registerGauge(reg, satellites, "dtnsim_satellites_in_contact")
	if err != nil {
		return nil, err
	}

	partial, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dtnsim_partial_transmissions_total",
		Help: "Cumulative number of queue entries left partially transmitted when a contact window closed.",
	}), "dtnsim_partial_transmissions_total")
	if err != nil {
		return nil, err
	}

	dupRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dtnsim_duplicate_suppression_ratio",
		Help: "Fraction of downlink delivery attempts suppressed as duplicates, over the run so far.",
	})
	dupRatio, err = registerGauge(reg, dupRatio, "dtnsim_duplicate_suppression_ratio")
	if err != nil {
		return nil, err
	}

	return &ContactCollector{
		gatherer:                  gatherer,
		ContactProcessingDuration: duration,
		SatellitesInContact:       satellites,
		PartialTransmissionsTotal: partial,
		DupSuppressionRatio:       dupRatio,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ContactCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveContactProcessing records how long a single contact window took to process.
func (c *ContactCollector) ObserveContactProcessing(d time.Duration) {
	if c == nil || c.ContactProcessingDuration == nil {
		return
	}
	c.ContactProcessingDuration.Observe(d.Seconds())
}

// SetSatellitesInContact updates the concurrent-contact gauge.
func (c *ContactCollector) SetSatellitesInContact(count int) {
	if c == nil || c.SatellitesInContact == nil {
		return
	}
	c.SatellitesInContact.Set(float64(count))
}

// IncPartialTransmissions increments the partial-transmission counter.
func (c *ContactCollector) IncPartialTransmissions() {
	if c == nil || c.PartialTransmissionsTotal == nil {
		return
	}
	c.PartialTransmissionsTotal.Inc()
}

// SetDupSuppressionRatio sets the running duplicate-suppression ratio, clamped to [0,1].
func (c *ContactCollector) SetDupSuppressionRatio(ratio float64) {
	if c == nil || c.DupSuppressionRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.DupSuppressionRatio.Set(ratio)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
