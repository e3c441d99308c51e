// Package tracing provides an OpenTelemetry middleware for storefront calls.
// It is entirely optional: tracing is only active when [Config] is wired in
// via the WithTracing engine option.
package tracing

import (
	"context"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the OpenTelemetry configuration used by the storefront-call
// middleware.
type Config struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider
}

// tracer returns a configured [trace.Tracer].
func (c *Config) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/HelgJet/cart-upsell-accsel/tracing")
}

// Middleware returns an [call.Middleware] that creates a client span for
// every storefront call. If cfg is nil the middleware is a no-op passthrough.
func Middleware(cfg *Config) call.Middleware {
	if cfg == nil {
		return func(next call.Func) call.Func {
			return next
		}
	}
	return func(next call.Func) call.Func {
		return func(ctx context.Context) error {
			endpoint := contextx.EndpointFromContext(ctx)
			ctx, span := cfg.tracer().Start(ctx, endpoint, trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			span.SetAttributes(
				attribute.String("storefront.endpoint", endpoint),
				attribute.String("request.id", contextx.RequestIDFromContext(ctx)),
			)
			if token := contextx.CartTokenFromContext(ctx); token != "" {
				span.SetAttributes(attribute.String("cart.token", token))
			}

			err := next(ctx)
			recordStatus(span, err)
			return err
		}
	}
}

// recordStatus sets the span status from the call outcome.
func recordStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
