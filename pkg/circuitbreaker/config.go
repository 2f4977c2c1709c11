package circuitbreaker

import "time"

// Settings tunes a Breaker. A zero Timeout opens the breaker for 60 seconds.
type Settings struct {
	Name string

	// Enabled false makes New return a pass-through breaker.
	Enabled bool

	// HalfOpenProbes is the number of calls let through while half-open.
	HalfOpenProbes uint

	// ResetInterval clears the failure counts while closed. Zero never
	// clears them.
	ResetInterval time.Duration

	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint
}
