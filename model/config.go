package model

import "time"

// ModeAConfig is the closed set of recognised options for the geometric
// contact engine, per spec.md §6 "Configuration (Mode A)". Defaults are
// assigned by NewModeAConfig, not by the zero value, so a caller who
// only sets a few fields still gets a runnable configuration.
type ModeAConfig struct {
	NumBundles int
	Routing    RoutingMode
	PHYMode    string

	StartTime        time.Time
	HorizonMinutes   int
	StepSeconds      int

	TTLMinutes       int
	PacketSizeBytes  int

	SimStartOffsetMinutes int

	// BundleReleaseOffsetsMinutes is broadcast to every bundle when it
	// has exactly one element and NumBundles > 1 (spec.md §6 "scalar
	// broadcast allowed").
	BundleReleaseOffsetsMinutes []int
	BundleSrcNames              []string
	BundleDstNames              []string

	// RealTimeSpeed paces the driver loop between ticks; 0 means no
	// pacing (run as fast as possible).
	RealTimeSpeed float64

	// RLOSKm records the line-of-sight Earth radius for the run
	// (spec.md §4.2 default 6350 km). RunModeA does not read it: the
	// radius in effect is the one passed to kb.NewAdjacencyEvaluator.
	RLOSKm float64

	// MaxCopies configures Spray-and-Wait's L; ignored by other routing
	// modes.
	MaxCopies int

	// Seed records the run's RNG seed (spec.md §8 idempotence law).
	// RunModeA has no random component and does not read it.
	Seed int64
}

// NewModeAConfig returns a ModeAConfig with spec.md-documented defaults,
// then applies opts.
func NewModeAConfig(opts ...func(*ModeAConfig)) ModeAConfig {
	cfg := ModeAConfig{
		NumBundles:      1,
		Routing:         RoutingEpidemic,
		PHYMode:         "default",
		StartTime:       time.Unix(0, 0).UTC(),
		HorizonMinutes:  60,
		StepSeconds:     60,
		TTLMinutes:      0,
		PacketSizeBytes: 1024,
		RealTimeSpeed:   0,
		RLOSKm:          6350,
		MaxCopies:       0,
		Seed:            1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.Routing = ResolveRoutingMode(string(cfg.Routing))
	return cfg
}

// ReleaseOffsetFor resolves the per-bundle release offset, applying the
// scalar-broadcast rule.
func (c ModeAConfig) ReleaseOffsetFor(bundleIndex int) time.Duration {
	if len(c.BundleReleaseOffsetsMinutes) == 0 {
		return 0
	}
	if len(c.BundleReleaseOffsetsMinutes) == 1 {
		return time.Duration(c.BundleReleaseOffsetsMinutes[0]) * time.Minute
	}
	if bundleIndex < len(c.BundleReleaseOffsetsMinutes) {
		return time.Duration(c.BundleReleaseOffsetsMinutes[bundleIndex]) * time.Minute
	}
	return 0
}

// SrcFor / DstFor resolve per-bundle endpoints with scalar broadcast.
func (c ModeAConfig) SrcFor(bundleIndex int) string { return broadcastPick(c.BundleSrcNames, bundleIndex) }
func (c ModeAConfig) DstFor(bundleIndex int) string { return broadcastPick(c.BundleDstNames, bundleIndex) }

func broadcastPick(names []string, idx int) string {
	switch {
	case len(names) == 0:
		return ""
	case len(names) == 1:
		return names[0]
	case idx < len(names):
		return names[idx]
	default:
		return names[len(names)-1]
	}
}

// SimulationStart is StartTime + the configured skip-ahead offset
// (spec.md §6 "simStartOffsetMinutes: Skip the first N minutes").
func (c ModeAConfig) SimulationStart() time.Time {
	return c.StartTime.Add(time.Duration(c.SimStartOffsetMinutes) * time.Minute)
}

// SimulationEnd is StartTime + HorizonMinutes.
func (c ModeAConfig) SimulationEnd() time.Time {
	return c.StartTime.Add(time.Duration(c.HorizonMinutes) * time.Minute)
}

// ModeBConfig is the closed set of recognised options for the
// contact-plan scheduler, per spec.md §6 "Configuration (Mode B)".
type ModeBConfig struct {
	StartTime time.Time
	StopTime  time.Time

	LambdaMsgPerSecond float64
	MsgSizeBytes       int

	SourceBufferBytes    float64
	SatelliteBufferBytes float64
	BufferPolicy         BufferPolicy

	Routing     string // "single" | "spray"
	SprayCopies int

	MinDwellSeconds int
	TTLSeconds      int
	ArqFactor       float64

	Seed int64
}

// NewModeBConfig returns a ModeBConfig with spec.md-documented defaults.
func NewModeBConfig(opts ...func(*ModeBConfig)) ModeBConfig {
	cfg := ModeBConfig{
		LambdaMsgPerSecond:   0.01,
		MsgSizeBytes:         1024,
		SourceBufferBytes:    10_000_000,
		SatelliteBufferBytes: 5_000_000,
		BufferPolicy:         PolicyOldest,
		Routing:              "single",
		SprayCopies:          1,
		MinDwellSeconds:      300,
		TTLSeconds:           0,
		ArqFactor:            1.05,
		Seed:                 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// BundleReport is the per-bundle output record of spec.md §6.
type BundleReport struct {
	ID          int
	Source      string
	Destination string
	ReleaseTime time.Time
	Outcome     Outcome
	DeliveredAt *time.Time
	ExpiredAt   *time.Time
	Hops        int

	PathDelaySeconds  float64
	PHYExtraSeconds   float64
	TotalDelaySeconds float64
	PHYProfileName    string
}
