package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/dtnsim/dtnsim/kb"
	"github.com/dtnsim/dtnsim/ledger"
	"github.com/dtnsim/dtnsim/model"
	"github.com/dtnsim/dtnsim/routing"
	"github.com/dtnsim/dtnsim/timectrl"
)

// ModeAResult is the outcome of a completed Mode A run.
type ModeAResult struct {
	Bundles    []*model.Bundle
	Reports    []model.BundleReport
	Deliveries []model.DeliveryRecord
	Ticks      int
}

// RunModeA drives the tick-stepped geometric contact engine of spec.md
// §4.2/§4.4 to completion: it constructs cfg.NumBundles bundles,
// registers them in bundles, then steps a timectrl.TimeController from
// cfg.SimulationStart to cfg.SimulationEnd, committing routing decisions
// and delivery/TTL checks each tick.
//
// adjacency must be built over the same node registry and a PHY profile
// matching cfg.PHYMode; RunModeA does not cross-check this. ctx
// cancellation is polled once per tick and halts the run cooperatively,
// the same as reaching every bundle's terminal state early (spec.md §5).
func RunModeA(ctx context.Context, cfg model.ModeAConfig, registry *kb.NodeRegistry, bundles *kb.BundleRegistry, adjacency *kb.AdjacencyEvaluator, reporter *ledger.Reporter) (ModeAResult, error) {
	built := make([]*model.Bundle, 0, cfg.NumBundles)
	for i := 0; i < cfg.NumBundles; i++ {
		src, dst := cfg.SrcFor(i), cfg.DstFor(i)
		if registry.Get(src) == nil || registry.Get(dst) == nil {
			return ModeAResult{}, fmt.Errorf("%w: bundle %d src=%q dst=%q", ErrUnknownEndpoint, i+1, src, dst)
		}
		release := cfg.StartTime.Add(cfg.ReleaseOffsetFor(i))
		ttlSeconds := cfg.TTLMinutes * 60
		b := model.NewBundle(i+1, src, dst, cfg.PacketSizeBytes, release, ttlSeconds, cfg.MaxCopies)
		built = append(built, b)
		bundles.Add(b)
	}

	profile := model.ResolvePHYProfile(cfg.PHYMode)
	simStart := cfg.SimulationStart()
	simEnd := cfg.SimulationEnd()

	// spec.md §8 boundary case: horizonMinutes <= simStartOffsetMinutes
	// is an empty run. No tick ever runs, so every bundle is reported
	// not-simulated regardless of its own releaseTime.
	if !simEnd.After(simStart) {
		for _, b := range built {
			reporter.FinalizeNotSimulated(b, profile)
		}
		return ModeAResult{Bundles: built, Reports: reporter.Reports(), Deliveries: reporter.Deliveries()}, nil
	}

	decider := routing.Resolve(cfg.Routing)

	mode := timectrl.Accelerated
	if cfg.RealTimeSpeed > 0 {
		mode = timectrl.RealTime
	}
	tc := timectrl.NewTimeController(simStart, time.Duration(cfg.StepSeconds)*time.Second, mode)
	if cfg.RealTimeSpeed > 0 {
		tc.Speed = cfg.RealTimeSpeed
	}

	ticks := 0
	tc.AddListener(func(t time.Time) {
		ticks++

		if ctx.Err() != nil {
			tc.Stop()
			return
		}

		// Adjacency is computed in full for every registered node before
		// any bundle's routing decision is made this tick (spec.md §5
		// ordering guarantee).
		nodes := registry.List()
		neighbours := make(map[string][]string, len(nodes))
		for _, n := range nodes {
			neighbours[n.Name] = adjacency.Neighbours(n.Name, t)
		}
		neighboursOf := func(h string) []string { return neighbours[h] }

		allFinal := true
		for _, b := range built {
			if b.ShouldBeBorn(t) {
				b.Birth(t)
				reporter.RecordRelease(t, b.ID)
			}
			if !b.Born {
				if !b.ReleaseTime.After(simEnd) {
					allFinal = false
				}
				continue
			}
			if b.Finalised() {
				continue
			}

			dest := b.Destination
			distToDest := func(name string) float64 {
				p1, ok1 := registry.PositionAt(name, t)
				p2, ok2 := registry.PositionAt(dest, t)
				if !ok1 || !ok2 {
					return 0
				}
				return p1.DistanceTo(p2)
			}

			for _, n := range decider.NewHolders(b, neighboursOf, distToDest) {
				if b.AddHolder(n) {
					reporter.RecordForward(t, b.ID, n)
				}
			}

			b.CheckDelivery(t)
			if b.Delivered {
				reporter.RecordDelivery(model.DeliveryRecord{
					BundleID:    b.ID,
					CreatedAt:   b.ReleaseTime,
					DeliveredAt: b.DeliveredAt,
					SizeBytes:   b.SizeBytes,
				})
			}
			b.CheckExpiry(t)

			if !b.Finalised() {
				allFinal = false
			}
		}

		if allFinal {
			tc.Stop()
		}
	})

	<-tc.Start(simEnd.Sub(simStart))

	for _, b := range built {
		reporter.Finalize(b, profile, simEnd)
	}

	return ModeAResult{
		Bundles:    built,
		Reports:    reporter.Reports(),
		Deliveries: reporter.Deliveries(),
		Ticks:      ticks,
	}, nil
}
