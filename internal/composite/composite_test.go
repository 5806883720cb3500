package composite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/sources"
)

func withClock(a *Aggregator, ms int64) {
	a.nowMs = func() int64 { return ms }
}

func TestComputeMedianOfFreshVenues(t *testing.T) {
	a := New(asset.CompositeConfig{StaleMS: 2000, TolerancePct: 0.01})
	withClock(a, 10_000)

	a.Ingest(sources.Tick{Venue: "kraken", Price: 100, ObservedMs: 9_500})
	a.Ingest(sources.Tick{Venue: "coinbase", Price: 101, ObservedMs: 9_800})
	a.Ingest(sources.Tick{Venue: "binance", Price: 100.5, ObservedMs: 9_900})

	res := a.Compute()
	require.True(t, res.Fresh)
	require.Equal(t, 3, res.VenueCount)
	require.InDelta(t, 100.5, res.Price, 1e-9)
}

func TestComputeDropsStaleVenues(t *testing.T) {
	a := New(asset.CompositeConfig{StaleMS: 1000, TolerancePct: 0.05})
	withClock(a, 10_000)

	a.Ingest(sources.Tick{Venue: "kraken", Price: 100, ObservedMs: 5_000}) // stale
	a.Ingest(sources.Tick{Venue: "coinbase", Price: 102, ObservedMs: 9_900})

	res := a.Compute()
	require.True(t, res.Fresh)
	require.Equal(t, 1, res.VenueCount)
	require.InDelta(t, 102, res.Price, 1e-9)
}

func TestComputeNotFreshWhenNoVenues(t *testing.T) {
	a := New(asset.CompositeConfig{StaleMS: 1000, TolerancePct: 0.05})
	res := a.Compute()
	require.False(t, res.Fresh)
}

func TestComputeDropsOutliersBeyondTolerance(t *testing.T) {
	a := New(asset.CompositeConfig{StaleMS: 2000, TolerancePct: 0.005})
	withClock(a, 10_000)

	a.Ingest(sources.Tick{Venue: "kraken", Price: 100, ObservedMs: 9_900})
	a.Ingest(sources.Tick{Venue: "coinbase", Price: 100.1, ObservedMs: 9_900})
	a.Ingest(sources.Tick{Venue: "bogus", Price: 150, ObservedMs: 9_900}) // > 0.5% away

	res := a.Compute()
	require.True(t, res.Fresh)
	require.Equal(t, 3, res.VenueCount, "count must be the fresh-set size, not the post-tolerance kept set")
	require.Less(t, res.Price, 101.0)
}
