package model

// PHYProfile is the flat physical-layer contract consumed by the
// adjacency evaluator (range gate) and the delay reporter (PHY-extra
// delay). spec.md §4.3 deliberately excludes a link-budget or
// frame-loss model: BitErrorRate is recorded for reporting only.
type PHYProfile struct {
	Name                     string
	DataRateBitsPerSecond    float64
	HandshakeOverheadSeconds float64
	MaxRangeKm               float64
	BitErrorRate             float64
}

// DefaultPHYProfiles returns the small set of named profiles the Mode A
// "phyMode" configuration option (spec.md §6) selects between. Unknown
// selectors fall back to "default".
func DefaultPHYProfiles() map[string]PHYProfile {
	return map[string]PHYProfile{
		"default": {
			Name:                     "default",
			DataRateBitsPerSecond:    1_000_000,
			HandshakeOverheadSeconds: 0.5,
			MaxRangeKm:               2000,
			BitErrorRate:             1e-6,
		},
		"optical": {
			Name:                     "optical",
			DataRateBitsPerSecond:    10_000_000_000,
			HandshakeOverheadSeconds: 0.05,
			MaxRangeKm:               5000,
			BitErrorRate:             1e-9,
		},
		"uhf": {
			Name:                     "uhf",
			DataRateBitsPerSecond:    9_600,
			HandshakeOverheadSeconds: 2.0,
			MaxRangeKm:               3000,
			BitErrorRate:             1e-4,
		},
	}
}

// ResolvePHYProfile looks up a named profile, falling back to "default"
// for an unrecognised or empty name (spec.md §6 "phyMode: Profile
// selector").
func ResolvePHYProfile(name string) PHYProfile {
	profiles := DefaultPHYProfiles()
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles["default"]
}
