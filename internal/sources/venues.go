package sources

import "time"

// KrakenParser decodes Kraken's ticker channel messages, where trades
// arrive as a JSON array: [channelID, {"c":["price", "lotVolume"]}, "ticker", "pair"].
// A bare {"c":[...]} payload object is accepted as well.
func KrakenParser(symbol string) Parser {
	return func(raw []byte) (Tick, bool, error) {
		price, ok, err := ParseJSONField(raw, "c", "0")
		if err == nil && !ok {
			// Full array frame: the ticker payload object is element 1.
			price, ok, err = ParseJSONField(raw, "1", "c", "0")
		}
		if err != nil || !ok {
			return Tick{}, false, nil
		}
		return Tick{Symbol: symbol, Price: price, ObservedMs: time.Now().UnixMilli()}, true, nil
	}
}

// CoinbaseParser decodes Coinbase's "ticker" channel messages, which carry
// a "price" field as a JSON string.
func CoinbaseParser(symbol string) Parser {
	return func(raw []byte) (Tick, bool, error) {
		price, ok, err := ParseJSONField(raw, "price")
		if err != nil || !ok {
			return Tick{}, false, nil
		}
		return Tick{Symbol: symbol, Price: price, ObservedMs: time.Now().UnixMilli()}, true, nil
	}
}

// BinanceParser decodes Binance's @ticker stream, which carries the last
// price in the "c" field.
func BinanceParser(symbol string) Parser {
	return func(raw []byte) (Tick, bool, error) {
		price, ok, err := ParseJSONField(raw, "c")
		if err != nil || !ok {
			return Tick{}, false, nil
		}
		return Tick{Symbol: symbol, Price: price, ObservedMs: time.Now().UnixMilli()}, true, nil
	}
}

// GenericLastPriceParser handles venues (kucoin, hyperliquid)
// whose ticker payload carries the last-traded price at a fixed JSON path.
func GenericLastPriceParser(symbol string, path ...string) Parser {
	return func(raw []byte) (Tick, bool, error) {
		price, ok, err := ParseJSONField(raw, path...)
		if err != nil || !ok {
			return Tick{}, false, nil
		}
		return Tick{Symbol: symbol, Price: price, ObservedMs: time.Now().UnixMilli()}, true, nil
	}
}
