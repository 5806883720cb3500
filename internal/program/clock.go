package program

import "time"

// SystemClock reads the real wall clock in Unix milliseconds.
type SystemClock struct{}

// NowUnixMs returns the current time in Unix milliseconds.
func (SystemClock) NowUnixMs() int64 {
	return time.Now().UnixMilli()
}

// FixedClock is a deterministic clock for tests.
type FixedClock struct {
	Ms int64
}

// NowUnixMs returns the fixed millisecond value.
func (f FixedClock) NowUnixMs() int64 {
	return f.Ms
}
