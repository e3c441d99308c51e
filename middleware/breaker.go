package middleware

import (
	"context"

	"github.com/HelgJet/cart-upsell-accsel/breaker"
	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
)

// Breaker returns a middleware that runs each call through the per-endpoint
// circuit breaker group. A shed call fails with breaker.ErrOpen, which the
// resolver treats like any other fetch failure: log and hide the widget.
func Breaker(g *breaker.Group) call.Middleware {
	return func(next call.Func) call.Func {
		return func(ctx context.Context) error {
			b := g.For(contextx.EndpointFromContext(ctx))
			return b.Do(func() error { return next(ctx) })
		}
	}
}
