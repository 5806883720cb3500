// Package reader implements the aggregation/dashboard backend: it
// polls the state account, decodes it, computes a robust per-asset
// aggregate (stale/outlier filtered), and serves both a pull and a
// push (SSE) view of the result.
package reader

import (
	"math"
	"sort"

	"github.com/svmoracle/oracle/internal/state"
)

const (
	DefaultStaleThresholdMS  = 15_000
	DefaultOutlierThreshold  = 0.10
)

// Row is one updater slot's decoded reading for an asset.
type Row struct {
	Price  int64
	TsMS   int64
	AgeMS  int64
}

// Aggregate is the published per-asset summary, or a null aggregate when
// no slot survives filtering.
type Aggregate struct {
	Valid    bool
	Avg      float64
	Count    int
	AgeAvg   float64
	LatestTs int64
}

// Params bundles the two tunable thresholds so callers don't have to pass
// them positionally.
type Params struct {
	StaleThresholdMS int64
	OutlierThreshold float64
}

func DefaultParams() Params {
	return Params{StaleThresholdMS: DefaultStaleThresholdMS, OutlierThreshold: DefaultOutlierThreshold}
}

// ComputeAggregate implements per-asset aggregate:
// discard zero/stale rows, discard price outliers beyond the median by
// more than OutlierThreshold, then average the survivors.
func ComputeAggregate(rows []Row, nowMs int64, decimals uint8, p Params) Aggregate {
	scale := math.Pow10(int(decimals))

	type candidate struct {
		priceHuman float64
		ageMs      int64
		tsMs       int64
	}
	var live []candidate
	for _, r := range rows {
		if r.Price == 0 {
			continue
		}
		age := nowMs - r.TsMS
		if age > p.StaleThresholdMS {
			continue
		}
		live = append(live, candidate{priceHuman: float64(r.Price) / scale, ageMs: age, tsMs: r.TsMS})
	}
	if len(live) == 0 {
		return Aggregate{}
	}

	prices := make([]float64, len(live))
	for i, c := range live {
		prices[i] = c.priceHuman
	}
	med := median(prices)

	var survivors []candidate
	for _, c := range live {
		if med == 0 || math.Abs(c.priceHuman-med)/med <= p.OutlierThreshold {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 0 {
		return Aggregate{}
	}

	var sumPrice, sumAge float64
	var latestTs int64
	for _, c := range survivors {
		sumPrice += c.priceHuman
		sumAge += float64(c.ageMs)
		if c.tsMs > latestTs {
			latestTs = c.tsMs
		}
	}
	n := float64(len(survivors))
	return Aggregate{
		Valid:    true,
		Avg:      sumPrice / n,
		Count:    len(survivors),
		AgeAvg:   sumAge / n,
		LatestTs: latestTs,
	}
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

// RowsForAsset extracts the per-updater rows for one asset from a decoded
// account, for ComputeAggregate to filter.
func RowsForAsset(acc state.Account, assetIdx int, nowMs int64) []Row {
	prices := acc.Prices[assetIdx]
	timestamps := acc.Timestamps[assetIdx]
	rows := make([]Row, len(prices))
	for i := range prices {
		rows[i] = Row{Price: prices[i], TsMS: timestamps[i], AgeMS: nowMs - timestamps[i]}
	}
	return rows
}
