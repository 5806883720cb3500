package reader

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeAggregateDropsZeroAndStaleRows(t *testing.T) {
	now := int64(20_000)
	rows := []Row{
		{Price: 0, TsMS: now},            // zero price
		{Price: 100, TsMS: 1_000},        // stale (age 19s > 15s default)
		{Price: 200, TsMS: now - 1_000},  // fresh
	}
	agg := ComputeAggregate(rows, now, 0, DefaultParams())
	require.True(t, agg.Valid)
	require.Equal(t, 1, agg.Count)
	require.InDelta(t, 200, agg.Avg, 1e-9)
}

func TestComputeAggregateDropsOutliersFromMedian(t *testing.T) {
	now := int64(20_000)
	rows := []Row{
		{Price: 5012300000000, TsMS: now},
		{Price: 5012350000000, TsMS: now},
		{Price: 5012400000000, TsMS: now},
		{Price: 6000000000000, TsMS: now}, // ~20% away from median, dropped
	}
	agg := ComputeAggregate(rows, now, 8, DefaultParams())
	require.True(t, agg.Valid)
	require.Equal(t, 3, agg.Count)
	require.InDelta(t, 50123.50, agg.Avg, 0.01)
}

func TestComputeAggregateNullWhenAllStale(t *testing.T) {
	now := int64(100_000)
	rows := []Row{{Price: 100, TsMS: 0}}
	agg := ComputeAggregate(rows, now, 0, DefaultParams())
	require.False(t, agg.Valid)
}
