package middleware

import (
	"context"
	"errors"
	"sync"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
	"github.com/HelgJet/cart-upsell-accsel/policy"
	"github.com/HelgJet/cart-upsell-accsel/ratelimit"
)

// ErrRateLimited is returned when the applicable limiter has no tokens left.
var ErrRateLimited = errors.New("storefront call rate limit exceeded")

// rateLimitState holds the global limiter, an optional policy resolver, and a
// cache of per-group limiters created lazily from resolved policies.
type rateLimitState struct {
	global   *ratelimit.Limiter
	resolver *policy.Resolver

	mu     sync.Mutex
	groups map[string]*ratelimit.Limiter
}

// limiterFor returns the per-group limiter when the resolver matches the
// endpoint to a group with a RateLimit policy. Otherwise it returns the
// global limiter.
func (s *rateLimitState) limiterFor(endpoint string) *ratelimit.Limiter {
	if s.resolver != nil {
		if _, pol, ok := s.resolver.Resolve(endpoint); ok && pol != nil && pol.RateLimit != nil {
			return s.groupLimiter(endpoint, pol.RateLimit)
		}
	}
	return s.global
}

// groupLimiter returns (or lazily creates) a per-group limiter keyed by the
// resolved group name.
func (s *rateLimitState) groupLimiter(endpoint string, rl *policy.RateLimitRule) *ratelimit.Limiter {
	name, _, _ := s.resolver.Resolve(endpoint)

	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.groups[name]; ok {
		return l
	}
	l := ratelimit.NewLimiter(float64(rl.Rate)/rl.Window.Seconds(), rl.Rate)
	s.groups[name] = l
	return l
}

// RateLimit returns a middleware that drops calls when the applicable rate
// limiter has been exhausted. When a policy resolver is provided and the
// endpoint matches a group with a RateLimit rule, that per-group limiter is
// used; otherwise the global limiter applies. A nil global limiter with no
// matching rule lets the call through.
func RateLimit(global *ratelimit.Limiter, r *policy.Resolver) call.Middleware {
	state := &rateLimitState{
		global:   global,
		resolver: r,
		groups:   make(map[string]*ratelimit.Limiter),
	}
	return func(next call.Func) call.Func {
		return func(ctx context.Context) error {
			if l := state.limiterFor(contextx.EndpointFromContext(ctx)); l != nil && !l.Allow() {
				return ErrRateLimited
			}
			return next(ctx)
		}
	}
}
