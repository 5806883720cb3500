package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/state"
)

// AccountFetcher fetches the raw state account bytes and the RPC context
// slot they were observed at.
type AccountFetcher interface {
	FetchAccount(ctx context.Context) (data []byte, contextSlot uint64, err error)
}

// GroupRow is one updater slot's reading, in the wire shape the dashboard
// consumes.
type GroupRow struct {
	Price float64 `json:"price"`
	Ts    int64   `json:"ts"`
	Age   int64   `json:"age"`
}

// AggWire is the wire shape of a published aggregate, or null.
type AggWire struct {
	Avg    float64 `json:"avg"`
	Count  int     `json:"count"`
	AgeAvg float64 `json:"ageAvg"`
}

// Snapshot is the full /api/state payload,
type Snapshot struct {
	CtxSlot  uint64                  `json:"ctxSlot"`
	PDA      string                  `json:"pda"`
	Exists   bool                    `json:"exists"`
	Decimals uint8                   `json:"decimals"`
	Groups   map[string][]GroupRow   `json:"groups"`
	Agg      map[string]*AggWire     `json:"agg"`
	LatestTs map[string]*int64       `json:"latestTs"`
}

// Server polls the state account on a fixed cadence and serves both a
// pull snapshot and a push (SSE) stream, the way yetaxyz-oracle wires
// gorilla/mux + rs/cors in front of a periodically refreshed dashboard
// payload.
type Server struct {
	log            *zap.Logger
	fetcher        AccountFetcher
	layout         state.Layout
	pdaBase58      string
	expectDecimals uint8
	decimalsForced bool
	pollInterval   time.Duration
	params         Params
}

func NewServer(log *zap.Logger, fetcher AccountFetcher, layout state.Layout, pdaBase58 string, expectDecimals uint8, decimalsForced bool, pollInterval time.Duration) *Server {
	return &Server{
		log:            log,
		fetcher:        fetcher,
		layout:         layout,
		pdaBase58:      pdaBase58,
		expectDecimals: expectDecimals,
		decimalsForced: decimalsForced,
		pollInterval:   pollInterval,
		params:         DefaultParams(),
	}
}

// Router builds the mux.Router with CORS applied, ready to hand to
// http.Server.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/api/stream", s.handleStream).Methods(http.MethodGet)
	return cors.Default().Handler(r)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.log.Warn("snapshot failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "data: {\"connected\":true}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			snap, err := s.snapshot(r.Context())
			if err != nil {
				s.log.Warn("stream snapshot failed", zap.Error(err))
				continue
			}
			b, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func (s *Server) snapshot(ctx context.Context) (Snapshot, error) {
	data, ctxSlot, err := s.fetcher.FetchAccount(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reader: fetch account: %w", err)
	}
	if len(data) == 0 {
		return Snapshot{CtxSlot: ctxSlot, PDA: s.pdaBase58, Exists: false}, nil
	}
	if err := s.layout.Validate(data); err != nil {
		return Snapshot{}, fmt.Errorf("reader: state too small: %w", err)
	}

	acc, err := state.Decode(s.layout, data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reader: decode: %w", err)
	}

	decimals := acc.Decimals
	if s.decimalsForced {
		decimals = s.expectDecimals
	} else if acc.Decimals != s.expectDecimals {
		return Snapshot{}, fmt.Errorf("reader: decimals mismatch: on-chain=%d expected=%d (set --decimals-override to force)", acc.Decimals, s.expectDecimals)
	}

	now := time.Now().UnixMilli()
	snap := Snapshot{
		CtxSlot:  ctxSlot,
		PDA:      s.pdaBase58,
		Exists:   true,
		Decimals: decimals,
		Groups:   make(map[string][]GroupRow, len(asset.Registry)),
		Agg:      make(map[string]*AggWire, len(asset.Registry)),
		LatestTs: make(map[string]*int64, len(asset.Registry)),
	}

	scale := pow10(decimals)
	for i, a := range asset.Registry {
		if i >= len(acc.Prices) {
			break
		}
		rows := RowsForAsset(acc, i, now)
		wireRows := make([]GroupRow, len(rows))
		for j, row := range rows {
			wireRows[j] = GroupRow{Price: float64(row.Price) / scale, Ts: row.TsMS, Age: row.AgeMS}
		}
		snap.Groups[a.Symbol] = wireRows

		agg := ComputeAggregate(rows, now, decimals, s.params)
		if agg.Valid {
			snap.Agg[a.Symbol] = &AggWire{Avg: agg.Avg, Count: agg.Count, AgeAvg: agg.AgeAvg}
			ts := agg.LatestTs
			snap.LatestTs[a.Symbol] = &ts
		} else {
			snap.Agg[a.Symbol] = nil
			snap.LatestTs[a.Symbol] = nil
		}
	}

	return snap, nil
}

func pow10(decimals uint8) float64 {
	out := 1.0
	for i := uint8(0); i < decimals; i++ {
		out *= 10
	}
	return out
}
