package engine

import (
	"context"
	"math"
	"testing"

	"github.com/dtnsim/dtnsim/geo"
	"github.com/dtnsim/dtnsim/kb"
	"github.com/dtnsim/dtnsim/ledger"
	"github.com/dtnsim/dtnsim/model"
)

func newRegistry(t *testing.T, points map[string]geo.Vec3, kind model.NodeKind) *kb.NodeRegistry {
	t.Helper()
	r := kb.NewNodeRegistry()
	for name, pt := range points {
		if _, err := r.Add(name, kind, geo.StaticOracle{Point: pt}); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	return r
}

// scenario #1: two ground stations in mutual line of sight, Epidemic
// routing, delivered on the tick after release with exactly one hop.
func TestRunModeA_TwoGroundStationsDeliverInOneHop(t *testing.T) {
	registry := newRegistry(t, map[string]geo.Vec3{
		"gs-1": {X: 8000, Y: 0, Z: 0},
		"gs-2": {X: 8000, Y: 500, Z: 0},
	}, model.KindGroundStation)
	phy := model.ResolvePHYProfile("default")
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("Epidemic", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 1
		c.BundleSrcNames = []string{"gs-1"}
		c.BundleDstNames = []string{"gs-2"}
		c.HorizonMinutes = 5
		c.StepSeconds = 60
	})

	result, err := RunModeA(context.Background(), cfg, registry, bundles, adjacency, reporter)
	if err != nil {
		t.Fatalf("RunModeA: %v", err)
	}
	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
	report := result.Reports[0]
	if report.Outcome != model.OutcomeDelivered {
		t.Fatalf("expected delivered outcome, got %v", report.Outcome)
	}
	if report.Hops != 1 {
		t.Fatalf("expected 1 hop, got %d", report.Hops)
	}
}

// scenario #2: destination never in range; TTL expiry is the terminal
// outcome once the configured TTL elapses.
func TestRunModeA_UnreachableDestinationExpiresOnTTL(t *testing.T) {
	registry := newRegistry(t, map[string]geo.Vec3{
		"gs-1": {X: 8000, Y: 0, Z: 0},
		"gs-2": {X: -8000, Y: 0, Z: 0},
	}, model.KindGroundStation)
	phy := model.ResolvePHYProfile("default")
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("Epidemic", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 1
		c.BundleSrcNames = []string{"gs-1"}
		c.BundleDstNames = []string{"gs-2"}
		c.HorizonMinutes = 10
		c.StepSeconds = 60
		c.TTLMinutes = 2
	})

	result, err := RunModeA(context.Background(), cfg, registry, bundles, adjacency, reporter)
	if err != nil {
		t.Fatalf("RunModeA: %v", err)
	}
	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
	if result.Reports[0].Outcome != model.OutcomeExpired {
		t.Fatalf("expected expired outcome, got %v", result.Reports[0].Outcome)
	}
}

// spec.md §7: a bundle whose source or destination is not registered in
// the node registry fails fast rather than running.
func TestRunModeA_UnknownEndpointFailsFast(t *testing.T) {
	registry := newRegistry(t, map[string]geo.Vec3{
		"gs-1": {X: 8000, Y: 0, Z: 0},
	}, model.KindGroundStation)
	phy := model.ResolvePHYProfile("default")
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("Epidemic", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 1
		c.BundleSrcNames = []string{"gs-1"}
		c.BundleDstNames = []string{"does-not-exist"}
	})

	_, err := RunModeA(context.Background(), cfg, registry, bundles, adjacency, reporter)
	if err == nil {
		t.Fatal("expected an error for an unknown destination endpoint")
	}
}

// spec.md §8 boundary case: horizonMinutes <= simStartOffsetMinutes is a
// valid empty run, not an error; every bundle is reported not-simulated.
func TestRunModeA_EmptyRunReportsNotSimulated(t *testing.T) {
	registry := newRegistry(t, map[string]geo.Vec3{
		"gs-1": {X: 8000, Y: 0, Z: 0},
		"gs-2": {X: 8000, Y: 500, Z: 0},
	}, model.KindGroundStation)
	phy := model.ResolvePHYProfile("default")
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("Epidemic", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 2
		c.BundleSrcNames = []string{"gs-1"}
		c.BundleDstNames = []string{"gs-2"}
		c.HorizonMinutes = 5
		c.SimStartOffsetMinutes = 5
	})

	result, err := RunModeA(context.Background(), cfg, registry, bundles, adjacency, reporter)
	if err != nil {
		t.Fatalf("RunModeA: %v", err)
	}
	if result.Ticks != 0 {
		t.Fatalf("expected zero ticks for an empty run, got %d", result.Ticks)
	}
	if len(result.Reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(result.Reports))
	}
	for _, r := range result.Reports {
		if r.Outcome != model.OutcomeNotSimulated {
			t.Errorf("expected not-simulated outcome, got %v", r.Outcome)
		}
	}
}

// cancelling ctx halts the run cooperatively before every bundle reaches
// a terminal state (spec.md §5).
func TestRunModeA_ContextCancellationStopsRun(t *testing.T) {
	registry := newRegistry(t, map[string]geo.Vec3{
		"gs-1": {X: 8000, Y: 0, Z: 0},
		"gs-2": {X: -8000, Y: 0, Z: 0},
	}, model.KindGroundStation)
	phy := model.ResolvePHYProfile("default")
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("Epidemic", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 1
		c.BundleSrcNames = []string{"gs-1"}
		c.BundleDstNames = []string{"gs-2"}
		c.HorizonMinutes = 1000
		c.StepSeconds = 60
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := RunModeA(ctx, cfg, registry, bundles, adjacency, reporter)
	if err != nil {
		t.Fatalf("RunModeA: %v", err)
	}
	if result.Ticks > 1 {
		t.Fatalf("expected the run to stop within a tick of cancellation, got %d ticks", result.Ticks)
	}
}

// spec.md §4.4: neighbours are visited in ascending node-index order, so
// a satellite ring under Epidemic routing saturates deterministically.
func TestRunModeA_SatelliteRingEventuallyDeliversUnderEpidemic(t *testing.T) {
	points := make(map[string]geo.Vec3, 12)
	const n = 12
	const radiusKm = 8000
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		points[satName(i)] = geo.Vec3{X: radiusKm * math.Cos(angle), Y: radiusKm * math.Sin(angle), Z: 0}
	}
	registry := newRegistry(t, points, model.KindSatellite)
	phy := model.PHYProfile{MaxRangeKm: 5000}
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("Epidemic", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 1
		c.BundleSrcNames = []string{satName(0)}
		c.BundleDstNames = []string{satName(6)}
		c.HorizonMinutes = 120
		c.StepSeconds = 60
		c.PHYMode = "default"
	})

	result, err := RunModeA(context.Background(), cfg, registry, bundles, adjacency, reporter)
	if err != nil {
		t.Fatalf("RunModeA: %v", err)
	}
	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
	if result.Reports[0].Outcome != model.OutcomeDelivered {
		t.Fatalf("expected delivered outcome, got %v", result.Reports[0].Outcome)
	}
}

func satName(i int) string { return "sat-" + string(rune('a'+i)) }

// scenario #4: Spray-and-Wait caps total copies at MaxCopies regardless
// of how long the run continues.
func TestRunModeA_SprayAndWaitRespectsMaxCopies(t *testing.T) {
	registry := newRegistry(t, map[string]geo.Vec3{
		"gs-1": {X: 8000, Y: 0, Z: 0},
		"gs-2": {X: 8000, Y: 300, Z: 0},
		"gs-3": {X: 8000, Y: 600, Z: 0},
	}, model.KindGroundStation)
	phy := model.ResolvePHYProfile("default")
	adjacency := kb.NewAdjacencyEvaluator(registry, geo.DefaultRLOSKm, phy)
	bundles := kb.NewBundleRegistry()
	reporter := ledger.NewReporter("SprayAndWait", nil, nil, nil)

	cfg := model.NewModeAConfig(func(c *model.ModeAConfig) {
		c.NumBundles = 1
		c.Routing = model.RoutingSprayAndWait
		c.BundleSrcNames = []string{"gs-1"}
		c.BundleDstNames = []string{"gs-3"}
		c.HorizonMinutes = 30
		c.StepSeconds = 60
		c.MaxCopies = 8
	})

	result, err := RunModeA(context.Background(), cfg, registry, bundles, adjacency, reporter)
	if err != nil {
		t.Fatalf("RunModeA: %v", err)
	}
	b := result.Bundles[0]
	if b.CopiesUsed > cfg.MaxCopies {
		t.Fatalf("expected copies used <= %d, got %d", cfg.MaxCopies, b.CopiesUsed)
	}
}
