// Package composite implements the per-asset composite aggregator: it
// keeps the latest tick seen from each venue and, on a fixed cadence,
// folds the fresh ones into a single representative price.
package composite

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/sources"
)

// Observation is the latest known tick for one venue.
type observation struct {
	price      float64
	observedMs int64
}

// Aggregator tracks the latest per-venue tick for a single asset and
// computes the composite price on demand.
type Aggregator struct {
	mu    sync.Mutex
	cfg   asset.CompositeConfig
	byVenue map[string]observation
	nowMs func() int64
}

func New(cfg asset.CompositeConfig) *Aggregator {
	return &Aggregator{
		cfg:     cfg,
		byVenue: make(map[string]observation),
		nowMs:   func() int64 { return time.Now().UnixMilli() },
	}
}

// Ingest records a single venue tick, overwriting any previous observation
// from the same venue.
func (a *Aggregator) Ingest(t sources.Tick) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byVenue[t.Venue] = observation{price: t.Price, observedMs: t.ObservedMs}
}

// Result is the outcome of one composite computation.
type Result struct {
	Price      float64
	VenueCount int
	Fresh      bool // false if no venue had a non-stale observation
}

// Compute filters to non-stale observations, drops any more than
// TolerancePct away from the median of the fresh set, and returns the
// median of what remains. An asset with zero fresh venues (e.g. HYPE
// during a venue outage) returns Fresh=false rather than a fabricated
// price.
func (a *Aggregator) Compute() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowMs()
	fresh := make([]float64, 0, len(a.byVenue))
	for _, obs := range a.byVenue {
		if now-obs.observedMs <= a.cfg.StaleMS {
			fresh = append(fresh, obs.price)
		}
	}
	if len(fresh) == 0 {
		return Result{Fresh: false}
	}

	med := median(fresh)
	within := make([]float64, 0, len(fresh))
	for _, p := range fresh {
		if math.Abs(p-med)/med <= a.cfg.TolerancePct {
			within = append(within, p)
		}
	}
	if len(within) == 0 {
		within = fresh
	}

	return Result{Price: median(within), VenueCount: len(fresh), Fresh: true}
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
