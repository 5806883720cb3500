package controller

import (
	"fmt"

	"github.com/svmoracle/oracle/internal/asset"
)

// Validator rejects price updates that fail basic sanity checks before
// the submit loop includes them in a submission. It is a pure function of
// its inputs: the asset's configured bounds plus (observedMs, price,
// lastSubmittedQ, lastSubmittedTs) — no state of its own beyond its
// thresholds.
type Validator struct {
	MaxJumpPct            float64 // reject a price more than this fraction away from the last submitted one
	MinResubmitIntervalMS int64   // minimum gap between two successful submissions for the same asset
}

func DefaultValidator() Validator {
	return Validator{MaxJumpPct: 0.25, MinResubmitIntervalMS: 200}
}

// Validate checks a candidate price update against its asset's configured
// min/max bounds, the max fractional change from the last submitted
// price, and the minimum resubmission interval. price and lastSubmittedQ
// are both in the same (raw, non-fixed-point) unit. lastSubmittedQ and
// lastSubmittedTs are zero if the asset has never been submitted.
func (v Validator) Validate(assetIndex int, observedMs int64, price float64, lastSubmittedQ float64, lastSubmittedTs int64) error {
	a, ok := asset.ByIndex(assetIndex)
	if !ok {
		return fmt.Errorf("controller: unknown asset index %d", assetIndex)
	}

	if a.Composite.MinPrice > 0 && price < a.Composite.MinPrice {
		return fmt.Errorf("controller: out-of-bounds: price %.8f below min %.8f", price, a.Composite.MinPrice)
	}
	if a.Composite.MaxPrice > 0 && price > a.Composite.MaxPrice {
		return fmt.Errorf("controller: out-of-bounds: price %.8f above max %.8f", price, a.Composite.MaxPrice)
	}

	if lastSubmittedTs != 0 {
		gap := observedMs - lastSubmittedTs
		if gap < v.MinResubmitIntervalMS {
			return fmt.Errorf("controller: submitted-too-soon: %dms since last submission, need %dms", gap, v.MinResubmitIntervalMS)
		}
	}

	if lastSubmittedQ != 0 {
		jump := (price - lastSubmittedQ) / lastSubmittedQ
		if jump < 0 {
			jump = -jump
		}
		if jump > v.MaxJumpPct {
			return fmt.Errorf("controller: excessive change: jump %.4f exceeds bound %.4f", jump, v.MaxJumpPct)
		}
	}
	return nil
}
