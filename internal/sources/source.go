// Package sources implements the venue price feeds that feed the composite
// aggregator: a reconnect-with-jitter WebSocket loop for streaming venues,
// and a retryablehttp-backed poll loop for HTTP-polled venues.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Tick is one price observation from a venue, already normalized to a
// mid/last price in quote-currency float form. Fixed-point quantization
// happens later, in the relay, never here.
type Tick struct {
	Venue      string
	Symbol     string
	Price      float64
	ObservedMs int64
}

// Parser turns one raw venue message into a Tick. ok is false for
// messages that carry no price (acks, pings, heartbeats) rather than an
// error — only malformed payloads the venue claims to be a price update
// should return an error.
type Parser func(raw []byte) (tick Tick, ok bool, err error)

// WebSocketConfig configures a single venue's WebSocket connection.
type WebSocketConfig struct {
	Venue                 string
	Endpoint              string
	SubscribeMessage      []byte // sent verbatim once connected, nil to skip
	ReconnectDelayInitial time.Duration
	ReconnectDelayMax     time.Duration
}

func (c *WebSocketConfig) setDefaults() {
	if c.ReconnectDelayInitial == 0 {
		c.ReconnectDelayInitial = time.Second
	}
	if c.ReconnectDelayMax == 0 {
		c.ReconnectDelayMax = 60 * time.Second
	}
}

// WebSocketSource streams Ticks from a single venue's WebSocket feed,
// reconnecting with exponential backoff and jitter on every disconnect.
type WebSocketSource struct {
	cfg    WebSocketConfig
	parse  Parser
	log    *zap.Logger
	delay  time.Duration
}

func NewWebSocketSource(cfg WebSocketConfig, parse Parser, log *zap.Logger) *WebSocketSource {
	cfg.setDefaults()
	return &WebSocketSource{cfg: cfg, parse: parse, log: log, delay: cfg.ReconnectDelayInitial}
}

// Run blocks, emitting Ticks to out until ctx is cancelled. It never
// returns a permanent error for connection failures — those are logged
// and retried forever, matching the relay's "stay up" supervision model.
func (s *WebSocketSource) Run(ctx context.Context, out chan<- Tick) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := s.connectOnce(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.log.Warn("venue connection error", zap.String("venue", s.cfg.Venue), zap.Error(err))
		}

		jitter := time.Duration(rand.Float64() * float64(500*time.Millisecond))
		wait := s.delay + jitter
		if wait > s.cfg.ReconnectDelayMax {
			wait = s.cfg.ReconnectDelayMax
		}
		s.log.Info("reconnecting", zap.String("venue", s.cfg.Venue), zap.Duration("delay", wait))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		s.delay *= 2
		if s.delay > s.cfg.ReconnectDelayMax {
			s.delay = s.cfg.ReconnectDelayMax
		}
	}
}

func (s *WebSocketSource) connectOnce(ctx context.Context, out chan<- Tick) error {
	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("sources: invalid endpoint for %s: %w", s.cfg.Venue, err)
	}

	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("sources: dial %s: %w", s.cfg.Venue, err)
	}
	defer conn.Close()

	s.delay = s.cfg.ReconnectDelayInitial
	s.log.Info("connected", zap.String("venue", s.cfg.Venue))

	if s.cfg.SubscribeMessage != nil {
		if err := conn.WriteMessage(websocket.TextMessage, s.cfg.SubscribeMessage); err != nil {
			return fmt.Errorf("sources: subscribe %s: %w", s.cfg.Venue, err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			tick, ok, err := s.parse(data)
			if err != nil {
				s.log.Debug("unparseable message", zap.String("venue", s.cfg.Venue), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
			price, ok := Normalize(tick.Price)
			if !ok {
				s.log.Debug("rejected non-finite or non-positive price", zap.String("venue", s.cfg.Venue), zap.Float64("price", tick.Price))
				continue
			}
			tick.Price = price
			tick.Venue = s.cfg.Venue
			select {
			case out <- tick:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Normalize rejects a raw venue price before it ever reaches a Tick: NaN,
// +/-Inf, and non-positive values are all signs of an unparseable or
// malformed upstream payload rather than a real price.
func Normalize(price float64) (float64, bool) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	if price <= 0 {
		return 0, false
	}
	return price, true
}

// ParseJSONField is a small helper venue parsers use to pull a float price
// out of decoded JSON by a path of object keys and decimal array indices
// (e.g. "c", "0"), used by the venue-specific Parser implementations in
// venues.go.
func ParseJSONField(raw []byte, path ...string) (float64, bool, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false, err
	}
	for _, key := range path {
		switch node := v.(type) {
		case map[string]interface{}:
			next, ok := node[key]
			if !ok {
				return 0, false, nil
			}
			v = next
		case []interface{}:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return 0, false, nil
			}
			v = node[idx]
		default:
			return 0, false, nil
		}
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err != nil {
			return 0, false, nil
		}
		return f, true, nil
	default:
		return 0, false, nil
	}
}
