package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/ipc"
	"github.com/svmoracle/oracle/internal/sources"
)

type fakePrimary struct {
	price float64
	obsMs int64
	ok    bool
}

func (f fakePrimary) Latest(assetIndex int) (float64, int64, bool) {
	return f.price, f.obsMs, f.ok
}

func btcIndex(t *testing.T) int {
	i, ok := asset.Index("BTC")
	require.True(t, ok)
	return i
}

func TestResolvePrefersFreshPrimaryFeed(t *testing.T) {
	r := New(zap.NewNop(), fakePrimary{price: 50000, obsMs: time.Now().UnixMilli(), ok: true}, 8, time.Hour, time.Hour)
	i := btcIndex(t)
	r.Ingest(i, sources.Tick{Venue: "kraken", Price: 49000, ObservedMs: time.Now().UnixMilli()})

	snap, ok := r.resolve(i)
	require.True(t, ok)
	require.Equal(t, SourcePrimary, snap.Source)
	require.Equal(t, 50000.0, snap.Price)
}

func TestResolveFallsBackToCompositeWhenPrimaryStale(t *testing.T) {
	r := New(zap.NewNop(), fakePrimary{price: 50000, obsMs: time.Now().UnixMilli() - 10_000, ok: true}, 8, time.Hour, time.Hour)
	i := btcIndex(t)
	r.Ingest(i, sources.Tick{Venue: "kraken", Price: 49000, ObservedMs: time.Now().UnixMilli()})

	snap, ok := r.resolve(i)
	require.True(t, ok)
	require.Equal(t, SourceComposite, snap.Source)
	require.Equal(t, 49000.0, snap.Price)
}

func TestEmitSnapshotsSuppressesNoOpAtQuantization(t *testing.T) {
	r := New(zap.NewNop(), nil, 2, time.Hour, time.Hour)
	i := btcIndex(t)
	r.Ingest(i, sources.Tick{Venue: "kraken", Price: 100.001, ObservedMs: time.Now().UnixMilli()})

	out := make(chan ipc.Message, 8)
	ctx := context.Background()
	r.emitSnapshots(ctx, out)
	require.Len(t, out, 1)

	// Same price, re-quantized to the same integer: must be suppressed.
	r.Ingest(i, sources.Tick{Venue: "kraken", Price: 100.002, ObservedMs: time.Now().UnixMilli()})
	r.emitSnapshots(ctx, out)
	require.Len(t, out, 1)
}

func TestQuantizeRoundsToNearestInteger(t *testing.T) {
	require.Equal(t, int64(5012345000000), quantize(50123.45, 8))
}
