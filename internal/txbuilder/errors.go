package txbuilder

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind classifies a submit failure into the taxonomy the controller's
// submit loop branches on: transient failures are logged and
// dropped, permanent ones surface and halt progress for that asset set.
type Kind int

const (
	KindUnknown Kind = iota
	KindBlockhashExpired
	KindBlockhashNotFound
	KindRateLimited
	KindConnection
	KindTimeout
	KindUnauthorizedSigner
	KindDecode
)

// TransientError wraps a retryable-next-tick failure. The submit loop
// never retries within a tick — see the internal/controller section of
// DESIGN.md — it just logs, counts, and waits for the next fresh snapshot.
type TransientError struct {
	Kind Kind
	Err  error
}

func (e *TransientError) Error() string { return "txbuilder: transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps a failure that will not resolve itself by retrying
// later — the configuration or program state itself is wrong.
type PermanentError struct {
	Kind Kind
	Err  error
}

func (e *PermanentError) Error() string { return "txbuilder: permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Classify maps a raw RPC/driver error onto the Transient/Permanent
// taxonomy in, by inspecting error text and standard
// transport/context error types — the same string-sniffing strategy
// aman-zulfiqar-solana-swap-indexer uses to interpret Solana RPC error
// messages, since the Solana RPC client surfaces most failures as plain
// strings rather than typed errors.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransientError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Kind: KindTimeout, Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "blockhash not found"):
		return &TransientError{Kind: KindBlockhashNotFound, Err: err}
	case strings.Contains(msg, "blockhash expired") || strings.Contains(msg, "block height exceeded"):
		return &TransientError{Kind: KindBlockhashExpired, Err: err}
	case strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit"):
		return &TransientError{Kind: KindRateLimited, Err: err}
	case strings.Contains(msg, "503") || strings.Contains(msg, "504") || strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return &TransientError{Kind: KindConnection, Err: err}
	case strings.Contains(msg, "unauthorizedsigner") || strings.Contains(msg, "unauthorized signer"):
		return &PermanentError{Kind: KindUnauthorizedSigner, Err: err}
	case strings.Contains(msg, "decode") || strings.Contains(msg, "statesizemismatch"):
		return &PermanentError{Kind: KindDecode, Err: err}
	default:
		return &PermanentError{Kind: KindUnknown, Err: err}
	}
}

// IsTransient reports whether an already-classified error is Transient.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
