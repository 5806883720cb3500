package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// PollSource fetches a primary feed (institutional/pyth-style) over HTTP on
// a fixed cadence, retrying transient failures with retryablehttp the way
// NimbleMarkets-dbn-go retries flaky upstream pulls.
type PollSource struct {
	Venue    string
	URL      string
	Symbol   string
	Interval time.Duration
	Extract  func(body []byte) (float64, error)

	client *retryablehttp.Client
	log    *zap.Logger
}

func NewPollSource(venue, url, symbol string, interval time.Duration, extract func([]byte) (float64, error), log *zap.Logger) *PollSource {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil // zap carries our logging instead of retryablehttp's own
	return &PollSource{Venue: venue, URL: url, Symbol: symbol, Interval: interval, Extract: extract, client: client, log: log}
}

// Run polls on a fixed cadence until ctx is cancelled, emitting one Tick
// per successful poll.
func (p *PollSource) Run(ctx context.Context, out chan<- Tick) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.pollOnce(ctx, out); err != nil {
				p.log.Warn("poll failed", zap.String("venue", p.Venue), zap.Error(err))
			}
		}
	}
}

func (p *PollSource) pollOnce(ctx context.Context, out chan<- Tick) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("sources: build request for %s: %w", p.Venue, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sources: fetch %s: %w", p.Venue, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sources: read body for %s: %w", p.Venue, err)
	}

	rawPrice, err := p.Extract(body)
	if err != nil {
		return fmt.Errorf("sources: extract price for %s: %w", p.Venue, err)
	}

	price, ok := Normalize(rawPrice)
	if !ok {
		return fmt.Errorf("sources: rejected non-finite or non-positive price %v for %s", rawPrice, p.Venue)
	}

	tick := Tick{Venue: p.Venue, Symbol: p.Symbol, Price: price, ObservedMs: time.Now().UnixMilli()}
	select {
	case out <- tick:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
