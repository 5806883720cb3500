package controller

import (
	"sync"
	"time"
)

// BreakerState mirrors the classic circuit-breaker state machine
//.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

// Breaker is the controller's submit-loop circuit breaker.
type Breaker struct {
	mu                sync.Mutex
	state             BreakerState
	consecutiveFails  int
	openedAt          time.Time
	failureThreshold  int
	cooldown          time.Duration
}

func NewBreaker() *Breaker {
	return &Breaker{failureThreshold: 10, cooldown: 60 * time.Second}
}

// Allow reports whether a submission attempt should proceed right now.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Closed:
		return true
	case Open:
		if time.Since(b.openedAt) >= b.cooldown {
			b.state = HalfOpen
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return true
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.consecutiveFails = 0
}

// RecordFailure increments the failure count and opens the breaker once
// the threshold is reached, or immediately reopens it on a HalfOpen probe
// failure.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.state = Open
		b.openedAt = time.Now()
		return
	}
	b.consecutiveFails++
	if b.consecutiveFails >= b.failureThreshold {
		b.state = Open
		b.openedAt = time.Now()
	}
}

// State returns the current breaker state, for metrics/logging.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
