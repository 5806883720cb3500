// Package asset holds the compile-time asset registry. Adding
// an asset is a code change here plus a state-account migration
// (close_state + initialize) — it is never data-driven at runtime.
package asset

// CompositeConfig carries the per-asset staleness/tolerance knobs for the
// composite aggregator, the venue -> symbol map the relay uses to know
// what to subscribe to on each exchange, and the sanity bounds the
// controller's validator enforces before a price reaches a submission.
type CompositeConfig struct {
	StaleMS      int64
	TolerancePct float64
	Venues       map[string]string // venue name -> venue-specific symbol
	MinPrice     float64           // reject submissions below this, 0 disables the check
	MaxPrice     float64           // reject submissions above this, 0 disables the check
}

// Asset is one compile-time tracked symbol.
type Asset struct {
	Symbol      string
	PrimaryFeed string // institutional feed identifier, "" if none
	Composite   CompositeConfig
}

const defaultStaleMS = 2000
const defaultTolerancePct = 0.005

func composite(tolerancePct float64, venues map[string]string, minPrice, maxPrice float64) CompositeConfig {
	return CompositeConfig{StaleMS: defaultStaleMS, TolerancePct: tolerancePct, Venues: venues, MinPrice: minPrice, MaxPrice: maxPrice}
}

// Registry is the compile-time list of tracked assets, in the fixed order
// that determines on-chain asset index assignment. Min/max bounds are a
// coarse sanity net, not a precise price oracle of their own — wide
// enough to survive a bull/bear cycle without a code change.
var Registry = []Asset{
	{Symbol: "BTC", PrimaryFeed: "pyth:btc-usd", Composite: composite(defaultTolerancePct, map[string]string{
		"kraken": "XBT/USD", "coinbase": "BTC-USD", "kucoin": "BTC-USDT", "binance": "BTCUSDT", "mexc": "BTCUSDT", "bybit": "BTCUSDT",
	}, 1_000, 1_000_000)},
	{Symbol: "ETH", PrimaryFeed: "pyth:eth-usd", Composite: composite(defaultTolerancePct, map[string]string{
		"kraken": "ETH/USD", "coinbase": "ETH-USD", "kucoin": "ETH-USDT", "binance": "ETHUSDT", "mexc": "ETHUSDT", "bybit": "ETHUSDT",
	}, 50, 100_000)},
	{Symbol: "SOL", PrimaryFeed: "pyth:sol-usd", Composite: composite(defaultTolerancePct, map[string]string{
		"kraken": "SOL/USD", "coinbase": "SOL-USD", "kucoin": "SOL-USDT", "binance": "SOLUSDT", "mexc": "SOLUSDT", "bybit": "SOLUSDT",
	}, 1, 10_000)},
	{Symbol: "HYPE", PrimaryFeed: "", Composite: composite(0.01, map[string]string{
		"binance": "HYPEUSDT", "bybit": "HYPEUSDT", "hyperliquid": "HYPE",
	}, 0.01, 1_000)},
	{Symbol: "ZEC", PrimaryFeed: "", Composite: composite(defaultTolerancePct, map[string]string{
		"kraken": "ZEC/USD", "binance": "ZECUSDT", "kucoin": "ZEC-USDT", "mexc": "ZECUSDT",
	}, 1, 10_000)},
	{Symbol: "TSLA", PrimaryFeed: "pyth:tsla-usd-equity", Composite: composite(0.01, map[string]string{}, 1, 10_000)},
	{Symbol: "NVDA", PrimaryFeed: "pyth:nvda-usd-equity", Composite: composite(0.01, map[string]string{}, 1, 10_000)},
	{Symbol: "MSTR", PrimaryFeed: "pyth:mstr-usd-equity", Composite: composite(0.01, map[string]string{}, 1, 10_000)},
	{Symbol: "GOLD", PrimaryFeed: "pyth:xau-usd", Composite: composite(0.005, map[string]string{}, 100, 20_000)},
	{Symbol: "SILVER", PrimaryFeed: "pyth:xag-usd", Composite: composite(0.005, map[string]string{}, 1, 1_000)},
}

// Index returns the compile-time order index of a symbol, matching the
// asset ordering used by the on-chain layout. The bool is
// false if the symbol is not registered.
func Index(symbol string) (int, bool) {
	for i, a := range Registry {
		if a.Symbol == symbol {
			return i, true
		}
	}
	return 0, false
}

// Symbols returns every registered symbol in compile-time order.
func Symbols() []string {
	out := make([]string, len(Registry))
	for i, a := range Registry {
		out[i] = a.Symbol
	}
	return out
}

// ByIndex returns the Asset at a given compile-time order position.
func ByIndex(i int) (Asset, bool) {
	if i < 0 || i >= len(Registry) {
		return Asset{}, false
	}
	return Registry[i], true
}
