package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/svmoracle/oracle/internal/asset"
)

func TestValidatorRejectsBelowMinBound(t *testing.T) {
	v := DefaultValidator()
	btc, _ := asset.Index("BTC")
	err := v.Validate(btc, time.Now().UnixMilli(), 10, 0, 0)
	require.ErrorContains(t, err, "out-of-bounds")
}

func TestValidatorRejectsAboveMaxBound(t *testing.T) {
	v := DefaultValidator()
	btc, _ := asset.Index("BTC")
	err := v.Validate(btc, time.Now().UnixMilli(), 2_000_000, 0, 0)
	require.ErrorContains(t, err, "out-of-bounds")
}

func TestValidatorRejectsExcessiveJump(t *testing.T) {
	v := Validator{MaxJumpPct: 0.1}
	btc, _ := asset.Index("BTC")
	err := v.Validate(btc, time.Now().UnixMilli(), 110_000, 100_000, 0)
	require.ErrorContains(t, err, "excessive change")
}

func TestValidatorAcceptsWithinBounds(t *testing.T) {
	v := Validator{MaxJumpPct: 0.1}
	btc, _ := asset.Index("BTC")
	err := v.Validate(btc, time.Now().UnixMilli(), 105_000, 100_000, 0)
	require.NoError(t, err)
}

func TestValidatorSkipsJumpCheckWithNoPriorValue(t *testing.T) {
	v := Validator{MaxJumpPct: 0.01}
	btc, _ := asset.Index("BTC")
	err := v.Validate(btc, time.Now().UnixMilli(), 100_000, 0, 0)
	require.NoError(t, err)
}

func TestValidatorRejectsSubmittedTooSoon(t *testing.T) {
	v := Validator{MaxJumpPct: 1, MinResubmitIntervalMS: 1000}
	btc, _ := asset.Index("BTC")
	now := time.Now().UnixMilli()
	err := v.Validate(btc, now, 100_000, 100_000, now-500)
	require.ErrorContains(t, err, "submitted-too-soon")
}

func TestValidatorAllowsResubmissionAfterInterval(t *testing.T) {
	v := Validator{MaxJumpPct: 1, MinResubmitIntervalMS: 1000}
	btc, _ := asset.Index("BTC")
	now := time.Now().UnixMilli()
	err := v.Validate(btc, now, 100_000, 100_000, now-1500)
	require.NoError(t, err)
}
