package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/ipc"
)

type fakeSubmitter struct {
	err   error
	calls int
	last  []int64
}

func (f *fakeSubmitter) SubmitBatch(ctx context.Context, signer solana.PrivateKey, updaterIndex uint8, pricesByAsset []int64, clientTsMs int64) (solana.Signature, error) {
	f.calls++
	f.last = append([]int64(nil), pricesByAsset...)
	if f.err != nil {
		return solana.Signature{}, f.err
	}
	return solana.Signature{1}, nil
}

func newTestLoop(sub Submitter) *SubmitLoop {
	return NewSubmitLoop(zap.NewNop(), solana.NewWallet().PrivateKey, 1, sub, Validator{MaxJumpPct: 1.0}, 0)
}

func TestTickSkipsWhenNoFreshUpdates(t *testing.T) {
	fake := &fakeSubmitter{}
	loop := newTestLoop(fake)
	require.False(t, loop.Tick(context.Background()))
	require.Equal(t, 0, fake.calls)
}

func TestTickSubmitsFreshPriceAndCarriesOldOnes(t *testing.T) {
	fake := &fakeSubmitter{}
	loop := newTestLoop(fake)

	btc, _ := asset.Index("BTC")
	eth, _ := asset.Index("ETH")
	now := time.Now().UnixMilli()

	loop.Merge(ipc.PriceUpdate{AssetIndex: btc, FixedPrice: 50_000, ObservedMs: now})
	require.True(t, loop.Tick(context.Background()))
	require.Equal(t, int64(50_000), fake.last[btc])
	require.Equal(t, int64(0), fake.last[eth])

	// Re-tick with no new data: nothing fresh, no submission.
	require.False(t, loop.Tick(context.Background()))
	require.Equal(t, 1, fake.calls)

	// New ETH price arrives; BTC's last value is carried forward unchanged.
	loop.Merge(ipc.PriceUpdate{AssetIndex: eth, FixedPrice: 2_500, ObservedMs: now + 10})
	require.True(t, loop.Tick(context.Background()))
	require.Equal(t, int64(50_000), fake.last[btc])
	require.Equal(t, int64(2_500), fake.last[eth])
	require.Equal(t, 2, fake.calls)
}

func TestTickOpensBreakerAfterTenFailures(t *testing.T) {
	fake := &fakeSubmitter{err: errors.New("connection refused")}
	loop := newTestLoop(fake)
	btc, _ := asset.Index("BTC")

	for i := 0; i < 10; i++ {
		loop.Merge(ipc.PriceUpdate{AssetIndex: btc, FixedPrice: int64(50_000 + i), ObservedMs: time.Now().UnixMilli()})
		loop.Tick(context.Background())
	}
	require.Equal(t, Open, loop.Breaker().State())

	// Breaker open: further ticks should not even reach the submitter.
	callsBefore := fake.calls
	loop.Merge(ipc.PriceUpdate{AssetIndex: btc, FixedPrice: 50_999, ObservedMs: time.Now().UnixMilli()})
	loop.Tick(context.Background())
	require.Equal(t, callsBefore, fake.calls)
}

func TestTickDropsValidatorRejectedAsset(t *testing.T) {
	fake := &fakeSubmitter{}
	loop := newTestLoop(fake)
	btc, _ := asset.Index("BTC")

	// FixedPrice decodes (at 0 decimals) to a price below BTC's configured
	// minimum bound, so the validator rejects it as out-of-bounds.
	loop.Merge(ipc.PriceUpdate{AssetIndex: btc, FixedPrice: 1, ObservedMs: time.Now().UnixMilli()})
	require.False(t, loop.Tick(context.Background()))
	require.Equal(t, 0, fake.calls)
	require.Equal(t, uint64(1), loop.Metrics().ValidationRejects)
}

func TestTickDropsSubmittedTooSoon(t *testing.T) {
	fake := &fakeSubmitter{}
	loop := NewSubmitLoop(zap.NewNop(), solana.NewWallet().PrivateKey, 1, fake, Validator{MaxJumpPct: 1.0, MinResubmitIntervalMS: 100_000}, 0)
	btc, _ := asset.Index("BTC")
	now := time.Now().UnixMilli()

	loop.Merge(ipc.PriceUpdate{AssetIndex: btc, FixedPrice: 50_000, ObservedMs: now})
	require.True(t, loop.Tick(context.Background()))
	require.Equal(t, 1, fake.calls)

	// Second update arrives too soon after the first successful submission.
	loop.Merge(ipc.PriceUpdate{AssetIndex: btc, FixedPrice: 50_100, ObservedMs: now + 1})
	require.False(t, loop.Tick(context.Background()))
	require.Equal(t, 1, fake.calls)
	require.Equal(t, uint64(1), loop.Metrics().ValidationRejects)
}
