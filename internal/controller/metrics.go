package controller

import "sync/atomic"

// Metrics accumulates the submit loop's running counters.
type Metrics struct {
	totalSuccesses      uint64
	totalErrors         uint64
	consecutiveFailures uint64
	validationRejects   uint64
}

func (m *Metrics) RecordSuccess() {
	atomic.AddUint64(&m.totalSuccesses, 1)
	atomic.StoreUint64(&m.consecutiveFailures, 0)
}

func (m *Metrics) RecordFailure() {
	atomic.AddUint64(&m.totalErrors, 1)
	atomic.AddUint64(&m.consecutiveFailures, 1)
}

func (m *Metrics) RecordValidationReject() {
	atomic.AddUint64(&m.validationRejects, 1)
}

// Snapshot is a point-in-time read of the counters.
type Snapshot struct {
	TotalSuccesses      uint64
	TotalErrors         uint64
	ConsecutiveFailures uint64
	ValidationRejects   uint64
	SuccessRate         float64
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		TotalSuccesses:      atomic.LoadUint64(&m.totalSuccesses),
		TotalErrors:         atomic.LoadUint64(&m.totalErrors),
		ConsecutiveFailures: atomic.LoadUint64(&m.consecutiveFailures),
		ValidationRejects:   atomic.LoadUint64(&m.validationRejects),
	}
	total := s.TotalSuccesses + s.TotalErrors
	if total > 0 {
		s.SuccessRate = float64(s.TotalSuccesses) / float64(total)
	}
	return s
}
