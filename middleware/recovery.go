// Package middleware provides the storefront-call middlewares: panic
// recovery, request IDs, logging, metrics, rate limiting, and circuit
// breaking. They compose via call.Chain and run around every cart fetch,
// recommendation fetch, and add-to-cart post.
package middleware

import (
	"context"
	"fmt"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
	"go.uber.org/zap"
)

// Recovery returns a middleware that converts a panic in the downstream call
// into an error, so a malformed response can never take the engine down.
func Recovery(log *zap.Logger) call.Middleware {
	return func(next call.Func) call.Func {
		return func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic in storefront call",
						zap.String("endpoint", contextx.EndpointFromContext(ctx)),
						zap.Any("panic", r),
					)
					err = fmt.Errorf("storefront call panicked: %v", r)
				}
			}()
			return next(ctx)
		}
	}
}
