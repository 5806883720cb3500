// Package relay fans in every venue source's ticks, folds them into
// per-asset composite prices, prefers an asset's primary feed when one
// is fresh, and emits price-snapshot ipc.Message values plus a
// fixed-cadence heartbeat.
package relay

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/composite"
	"github.com/svmoracle/oracle/internal/ipc"
	"github.com/svmoracle/oracle/internal/sources"
)

// SourceKind mirrors PriceSnapshot.source_kind.
type SourceKind uint8

const (
	SourceComposite SourceKind = iota
	SourcePrimary
)

// Snapshot is the relay's merged per-asset view, kept only in memory.
type Snapshot struct {
	AssetIndex   int
	Price        float64
	PublishedMs  int64
	Source       SourceKind
	ActiveVenues int
}

// PrimaryFeed supplies the latest institutional-feed price for one asset,
// if any. MemoryPrimaryFeed (primary.go) is the implementation fed by the
// poll sources; this is the narrow interface the relay actually needs.
type PrimaryFeed interface {
	Latest(assetIndex int) (price float64, observedMs int64, ok bool)
}

// Relay merges venue ticks (via per-asset composite.Aggregator) with an
// optional primary feed and emits snapshots + heartbeats on a fixed cadence.
type Relay struct {
	log          *zap.Logger
	aggregators  []*composite.Aggregator
	primary      PrimaryFeed
	decimals     uint8
	tickInterval time.Duration
	heartbeatEvery time.Duration

	lastQuantized []int64
	haveLast      []bool
}

func New(log *zap.Logger, primary PrimaryFeed, decimals uint8, tickInterval, heartbeatEvery time.Duration) *Relay {
	n := len(asset.Registry)
	aggs := make([]*composite.Aggregator, n)
	for i, a := range asset.Registry {
		aggs[i] = composite.New(a.Composite)
	}
	return &Relay{
		log:            log,
		aggregators:    aggs,
		primary:        primary,
		decimals:       decimals,
		tickInterval:   tickInterval,
		heartbeatEvery: heartbeatEvery,
		lastQuantized:  make([]int64, n),
		haveLast:       make([]bool, n),
	}
}

// Ingest feeds one venue tick into the asset's composite aggregator. The
// caller resolves tick.Symbol to an asset index before calling.
func (r *Relay) Ingest(assetIndex int, t sources.Tick) {
	if assetIndex < 0 || assetIndex >= len(r.aggregators) {
		return
	}
	r.aggregators[assetIndex].Ingest(t)
}

// Run drives the snapshot/heartbeat cadence until ctx is cancelled,
// writing ipc.Messages to out. out is never closed by Run; the caller owns
// its lifecycle.
func (r *Relay) Run(ctx context.Context, out chan<- ipc.Message) error {
	snapTicker := time.NewTicker(r.tickInterval)
	defer snapTicker.Stop()
	hbTicker := time.NewTicker(r.heartbeatEvery)
	defer hbTicker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-hbTicker.C:
			seq++
			hb := ipc.Message{Kind: ipc.KindHeartbeat, Heartbeat: &ipc.Heartbeat{SeqNo: seq, UnixMs: time.Now().UnixMilli()}}
			select {
			case out <- hb:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-snapTicker.C:
			r.emitSnapshots(ctx, out)
		}
	}
}

func (r *Relay) emitSnapshots(ctx context.Context, out chan<- ipc.Message) {
	for i := range r.aggregators {
		snap, ok := r.resolve(i)
		if !ok {
			continue
		}
		q := quantize(snap.Price, r.decimals)
		if r.haveLast[i] && r.lastQuantized[i] == q {
			continue // no-op at this quantization, nothing new to publish
		}
		r.lastQuantized[i] = q
		r.haveLast[i] = true

		msg := ipc.Message{Kind: ipc.KindPriceUpdate, Price: &ipc.PriceUpdate{
			AssetIndex: i,
			FixedPrice: q,
			ObservedMs: snap.PublishedMs,
			VenueCount: snap.ActiveVenues,
		}}
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// resolve prefers a fresh primary feed over the composite: an asset
// with PrimaryFeed set uses it whenever its own feed is fresh, falling
// back to composite otherwise.
func (r *Relay) resolve(i int) (Snapshot, bool) {
	a := asset.Registry[i]
	now := time.Now().UnixMilli()

	if a.PrimaryFeed != "" && r.primary != nil {
		if price, observedMs, ok := r.primary.Latest(i); ok && now-observedMs <= a.Composite.StaleMS {
			return Snapshot{AssetIndex: i, Price: price, PublishedMs: observedMs, Source: SourcePrimary, ActiveVenues: 1}, true
		}
	}

	res := r.aggregators[i].Compute()
	if !res.Fresh {
		return Snapshot{}, false
	}
	return Snapshot{AssetIndex: i, Price: res.Price, PublishedMs: now, Source: SourceComposite, ActiveVenues: res.VenueCount}, true
}

func quantize(price float64, decimals uint8) int64 {
	scale := math.Pow10(int(decimals))
	return int64(math.Round(price * scale))
}
