package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics a simulation run updates as it
// progresses (spec.md §6 persisted outputs / §8 testable counters).
type Collector struct {
	gatherer prometheus.Gatherer

	BundlesDelivered    *prometheus.CounterVec
	BundlesExpired      *prometheus.CounterVec
	BufferDrops         *prometheus.CounterVec
	DuplicatesSuppressed prometheus.Counter
	AirBytes            prometheus.Counter

	BufferOccupancy *prometheus.GaugeVec
}

// NewCollector registers the DTN simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dtnsim_bundles_delivered_total",
		Help: "Total number of bundles marked delivered, labeled by routing mode.",
	}, []string{"routing"})
	delivered, err := registerCounterVec(reg, delivered, "dtnsim_bundles_delivered_total")
	if err != nil {
		return nil, err
	}

	expired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dtnsim_bundles_expired_total",
		Help: "Total number of bundles marked expired, labeled by routing mode.",
	}, []string{"routing"})
	expired, err = registerCounterVec(reg, expired, "dtnsim_bundles_expired_total")
	if err != nil {
		return nil, err
	}

	bufferDrops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dtnsim_buffer_drops_total",
		Help: "Total number of queue entries dropped on admission, labeled by node.",
	}, []string{"node"})
	bufferDrops, err = registerCounterVec(reg, bufferDrops, "dtnsim_buffer_drops_total")
	if err != nil {
		return nil, err
	}

	dupSuppressed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dtnsim_duplicate_deliveries_suppressed_total",
		Help: "Total number of duplicate delivery attempts suppressed at the destination.",
	}), "dtnsim_duplicate_deliveries_suppressed_total")
	if err != nil {
		return nil, err
	}

	airBytes, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dtnsim_air_bytes_total",
		Help: "Total bytes that crossed a link, including ARQ overhead.",
	}), "dtnsim_air_bytes_total")
	if err != nil {
		return nil, err
	}

	occupancy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dtnsim_buffer_occupancy_bytes",
		Help: "Current buffer occupancy in bytes, labeled by node.",
	}, []string{"node"})
	occupancy, err = registerGaugeVec(reg, occupancy, "dtnsim_buffer_occupancy_bytes")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:             gatherer,
		BundlesDelivered:     delivered,
		BundlesExpired:       expired,
		BufferDrops:          bufferDrops,
		DuplicatesSuppressed: dupSuppressed,
		AirBytes:             airBytes,
		BufferOccupancy:      occupancy,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
