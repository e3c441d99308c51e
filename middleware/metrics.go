package middleware

import (
	"context"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
	"github.com/HelgJet/cart-upsell-accsel/metrics"
)

// Metrics returns a middleware that records call counts and latency per
// endpoint.
func Metrics(m *metrics.Metrics) call.Middleware {
	return func(next call.Func) call.Func {
		return func(ctx context.Context) error {
			endpoint := contextx.EndpointFromContext(ctx)
			start := time.Now()
			err := next(ctx)
			m.StorefrontDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

			outcome := "ok"
			if err != nil {
				outcome = "error"
			}
			m.StorefrontCalls.WithLabelValues(endpoint, outcome).Inc()
			return err
		}
	}
}
