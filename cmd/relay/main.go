// Command oracle-relay connects one WebSocket per (venue, asset),
// merges readings into a per-asset composite price, and streams
// heartbeats and price updates to the controller over stdout as
// newline-delimited JSON.
package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/config"
	"github.com/svmoracle/oracle/internal/ipc"
	"github.com/svmoracle/oracle/internal/logging"
	"github.com/svmoracle/oracle/internal/relay"
	"github.com/svmoracle/oracle/internal/sources"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to a .env file (optional)")
	verbose := pflag.Bool("verbose", false, "enable debug logging")
	decimals := pflag.Uint8("decimals", 8, "fixed-point decimals used to quantize prices before no-op suppression")
	tickMs := pflag.Int64("tick-ms", 1000, "snapshot cadence in milliseconds")
	heartbeatMs := pflag.Int64("heartbeat-ms", 5000, "heartbeat cadence in milliseconds, default 5s")
	pflag.Parse()

	config.Load(*envFile)
	log, err := logging.New("relay", *verbose)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())

	primary := relay.NewMemoryPrimaryFeed()
	r := relay.New(log, primary, uint8(*decimals), time.Duration(*tickMs)*time.Millisecond, time.Duration(*heartbeatMs)*time.Millisecond)

	ticks := make(chan sources.Tick, 256)
	startVenueSources(ctx, log, ticks)
	startPrimarySources(ctx, log, primary)
	go fanInTicks(r, ticks)

	out := make(chan ipc.Message, 256)
	go writeOutgoing(log, out)
	go readShutdown(cancel, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		cancel()
	}()

	if err := r.Run(ctx, out); err != nil && ctx.Err() == nil {
		log.Error("relay run exited unexpectedly", zap.Error(err))
		os.Exit(1)
	}
}

// startVenueSources spins up one WebSocketSource per (asset, venue) pair,
// ("one WebSocket per (venue, asset) combination").
func startVenueSources(ctx context.Context, log *zap.Logger, out chan<- sources.Tick) {
	for _, a := range asset.Registry {
		for venue, venueSymbol := range a.Composite.Venues {
			parser := parserFor(venue, venueSymbol)
			cfg := sources.WebSocketConfig{Venue: venue, Endpoint: config.VenueEndpoint(venue)}
			src := sources.NewWebSocketSource(cfg, parser, log)
			go func(s *sources.WebSocketSource, symbol string) {
				if err := s.Run(ctx, relabeled(out, symbol)); err != nil && ctx.Err() == nil {
					log.Warn("venue source stopped", zap.Error(err))
				}
			}(src, a.Symbol)
		}
	}
}

// relabeled wraps a Tick channel so every tick written through it carries
// the oracle asset symbol instead of the venue-specific symbol the parser
// only knows about.
func relabeled(out chan<- sources.Tick, assetSymbol string) chan<- sources.Tick {
	relabel := make(chan sources.Tick)
	go func() {
		for t := range relabel {
			t.Symbol = assetSymbol
			out <- t
		}
	}()
	return relabel
}

func parserFor(venue, venueSymbol string) sources.Parser {
	switch venue {
	case "kraken":
		return sources.KrakenParser(venueSymbol)
	case "coinbase":
		return sources.CoinbaseParser(venueSymbol)
	case "binance", "mexc", "bybit":
		return sources.BinanceParser(venueSymbol)
	default:
		return sources.GenericLastPriceParser(venueSymbol, "price")
	}
}

// startPrimarySources polls each asset's institutional feed, if any, on a
// 1s cadence and records the result into the relay's MemoryPrimaryFeed.
func startPrimarySources(ctx context.Context, log *zap.Logger, primary *relay.MemoryPrimaryFeed) {
	for i, a := range asset.Registry {
		if a.PrimaryFeed == "" {
			continue
		}
		assetIndex := i
		feedID := a.PrimaryFeed
		url := config.StringEnv("ORACLE_PYTH_ENDPOINT", "https://hermes.pyth.network/v2/updates/price/latest?ids[]="+feedID)
		extract := func(body []byte) (float64, error) {
			price, ok, err := sources.ParseJSONField(body, "parsed", "0", "price", "price")
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, context.DeadlineExceeded
			}
			return price, nil
		}
		feedOut := make(chan sources.Tick, 4)
		poll := sources.NewPollSource("pyth", url, feedID, time.Second, extract, log)
		go func() {
			if err := poll.Run(ctx, feedOut); err != nil && ctx.Err() == nil {
				log.Warn("primary feed poll stopped", zap.Error(err))
			}
		}()
		go func() {
			for t := range feedOut {
				primary.Set(assetIndex, t.Price, t.ObservedMs)
			}
		}()
	}
}

func fanInTicks(r *relay.Relay, ticks <-chan sources.Tick) {
	for t := range ticks {
		idx, ok := asset.Index(t.Symbol)
		if !ok {
			continue
		}
		r.Ingest(idx, t)
	}
}

func writeOutgoing(log *zap.Logger, out <-chan ipc.Message) {
	w := ipc.NewWriter(os.Stdout)
	for msg := range out {
		if err := w.Write(msg); err != nil {
			log.Error("failed to write ipc message", zap.Error(err))
		}
	}
}

// readShutdown watches stdin for a Shutdown message from the controller,
// honoring it within the grace period requires.
func readShutdown(cancel context.CancelFunc, log *zap.Logger) {
	r := ipc.NewReader(bufio.NewReader(os.Stdin))
	for {
		msg, err := r.Next()
		if err != nil {
			return
		}
		if msg.Kind == ipc.KindShutdown {
			log.Info("shutdown requested by controller", zap.String("reason", msg.Shutdown.Reason))
			cancel()
			return
		}
	}
}
