package controller

import (
	"context"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/asset"
	"github.com/svmoracle/oracle/internal/ipc"
	"github.com/svmoracle/oracle/internal/txbuilder"
)

// Submitter is the narrow surface the submit loop needs — the real
// implementation is *txbuilder.Builder; tests supply a fake.
type Submitter interface {
	SubmitBatch(ctx context.Context, signer solana.PrivateKey, updaterIndex uint8, pricesByAsset []int64, clientTsMs int64) (solana.Signature, error)
}

// assetState is the submit loop's private per-asset bookkeeping
// (last_submitted_ts / last_submitted_q from).
type assetState struct {
	lastSubmittedTs int64
	lastSubmittedQ  int64
	everSubmitted   bool
}

// SubmitLoop owns the fresh/last-sent tables and drives one tick of the
// submit algorithm in
type SubmitLoop struct {
	log          *zap.Logger
	signer       solana.PrivateKey
	updaterIndex uint8
	submitter    Submitter
	validator    Validator
	breaker      *Breaker
	metrics      *Metrics
	scale        float64 // 10^decimals, converts a FixedPrice back to a raw price for validation

	latest map[int]ipc.PriceUpdate
	states []assetState
}

func NewSubmitLoop(log *zap.Logger, signer solana.PrivateKey, updaterIndex uint8, submitter Submitter, validator Validator, decimals uint8) *SubmitLoop {
	return &SubmitLoop{
		log:          log,
		signer:       signer,
		updaterIndex: updaterIndex,
		submitter:    submitter,
		validator:    validator,
		breaker:      NewBreaker(),
		metrics:      &Metrics{},
		scale:        math.Pow(10, float64(decimals)),
		latest:       make(map[int]ipc.PriceUpdate),
		states:       make([]assetState, len(asset.Registry)),
	}
}

// Merge folds an incoming relay price update into the in-memory latest
// snapshot table. Heartbeats are handled by the caller's liveness monitor
// and never reach here.
func (s *SubmitLoop) Merge(update ipc.PriceUpdate) {
	s.latest[update.AssetIndex] = update
}

// Metrics exposes the running counters for the dashboard/logs.
func (s *SubmitLoop) Metrics() Snapshot { return s.metrics.Snapshot() }

// Breaker exposes the circuit breaker for logging/tests.
func (s *SubmitLoop) Breaker() *Breaker { return s.breaker }

// Tick runs one iteration of the submit algorithm. It returns true if a submission was attempted.
func (s *SubmitLoop) Tick(ctx context.Context) bool {
	if !s.breaker.Allow() {
		return false
	}

	freshIdx := s.freshSet()
	if len(freshIdx) == 0 {
		return false
	}

	freshIdx = s.applyValidator(freshIdx)
	if len(freshIdx) == 0 {
		return false
	}

	prices := make([]int64, len(asset.Registry))
	for i := range asset.Registry {
		if _, isFresh := indexOf(freshIdx, i); isFresh {
			prices[i] = s.latest[i].FixedPrice
		} else {
			prices[i] = s.states[i].lastSubmittedQ
		}
	}

	sig, err := s.submitter.SubmitBatch(ctx, s.signer, s.updaterIndex, prices, time.Now().UnixMilli())
	if err != nil {
		s.metrics.RecordFailure()
		s.breaker.RecordFailure()
		if txbuilder.IsTransient(err) {
			s.log.Warn("submit failed, transient", zap.Error(err))
		} else {
			s.log.Error("submit failed, permanent", zap.Error(err))
		}
		return true
	}

	s.log.Info("submitted batch", zap.String("signature", sig.String()), zap.Ints("fresh_assets", freshIdx))
	s.metrics.RecordSuccess()
	s.breaker.RecordSuccess()

	for i := range asset.Registry {
		if _, isFresh := indexOf(freshIdx, i); isFresh {
			if upd, ok := s.latest[i]; ok && upd.ObservedMs > s.states[i].lastSubmittedTs {
				s.states[i].lastSubmittedTs = upd.ObservedMs
			}
		}
		s.states[i].lastSubmittedQ = prices[i]
		s.states[i].everSubmitted = true
	}
	return true
}

// freshSet returns asset indices whose latest snapshot is newer than the
// last submission and whose quantized price differs from what was last
// submitted.
func (s *SubmitLoop) freshSet() []int {
	var out []int
	for i := range asset.Registry {
		upd, ok := s.latest[i]
		if !ok {
			continue
		}
		st := s.states[i]
		if upd.ObservedMs > st.lastSubmittedTs && (!st.everSubmitted || upd.FixedPrice != st.lastSubmittedQ) {
			out = append(out, i)
		}
	}
	return out
}

func (s *SubmitLoop) applyValidator(freshIdx []int) []int {
	var kept []int
	for _, i := range freshIdx {
		upd := s.latest[i]
		price := float64(upd.FixedPrice) / s.scale
		lastQ := float64(s.states[i].lastSubmittedQ) / s.scale
		if err := s.validator.Validate(i, upd.ObservedMs, price, lastQ, s.states[i].lastSubmittedTs); err != nil {
			s.metrics.RecordValidationReject()
			s.log.Warn("validator rejected price update", zap.Int("asset_index", i), zap.Error(err))
			continue
		}
		kept = append(kept, i)
	}
	return kept
}

func indexOf(xs []int, v int) (int, bool) {
	for pos, x := range xs {
		if x == v {
			return pos, true
		}
	}
	return 0, false
}
