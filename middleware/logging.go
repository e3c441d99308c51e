package middleware

import (
	"context"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
	"go.uber.org/zap"
)

// Logging returns a middleware that logs every storefront call: debug on
// success, warn on failure. Failures stay at warn because the engine always
// degrades gracefully; nothing here is fatal.
func Logging(log *zap.Logger) call.Middleware {
	return func(next call.Func) call.Func {
		return func(ctx context.Context) error {
			start := time.Now()
			err := next(ctx)

			fields := []zap.Field{
				zap.String("endpoint", contextx.EndpointFromContext(ctx)),
				zap.String("request_id", contextx.RequestIDFromContext(ctx)),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				log.Warn("storefront call failed", append(fields, zap.Error(err))...)
				return err
			}
			log.Debug("storefront call", fields...)
			return nil
		}
	}
}
