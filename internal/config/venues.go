package config

// VenueEndpoints holds the default WebSocket endpoint for each venue the
// asset registry references; every one is overridable via
// ORACLE_VENUE_<NAME>_ENDPOINT so a deployment can point at a proxy or a
// sandbox environment instead of the public venue.
var VenueEndpoints = map[string]string{
	"kraken":      "wss://ws.kraken.com",
	"coinbase":    "wss://ws-feed.exchange.coinbase.com",
	"binance":     "wss://stream.binance.com:9443/ws",
	"kucoin":      "wss://ws-api-spot.kucoin.com",
	"mexc":        "wss://wbs.mexc.com/ws",
	"bybit":       "wss://stream.bybit.com/v5/public/spot",
	"hyperliquid": "wss://api.hyperliquid.xyz/ws",
}

// VenueEndpoint resolves a venue's WebSocket endpoint, honoring a
// per-venue override.
func VenueEndpoint(venue string) string {
	key := "ORACLE_VENUE_" + upper(venue) + "_ENDPOINT"
	return StringEnv(key, VenueEndpoints[venue])
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
