// Package ratelimit provides token-bucket limiters backed by
// golang.org/x/time/rate, used to gate storefront calls and to pace the
// widget's reconciliation cycles.
package ratelimit

import "golang.org/x/time/rate"

// Limiter wraps a token-bucket limiter that decides whether an outgoing
// storefront call should be allowed.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter creates a Limiter that permits rps calls per second with the
// given burst size.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a single call may proceed.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}
