package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between repeated invocations of the same
// routine. The reconciler uses one to avoid hammering the storefront when
// cart-change signals arrive in bursts; a rejected invocation is simply
// dropped, the next signal will try again.
type Gate struct {
	lim *rate.Limiter
}

// NewGate creates a Gate that allows one invocation per interval, with a
// burst of one so the first call always passes.
func NewGate(interval time.Duration) *Gate {
	return &Gate{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// Allow reports whether an invocation may proceed now.
func (g *Gate) Allow() bool {
	return g.lim.Allow()
}
