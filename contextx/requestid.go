package contextx

import "context"

// WithRequestID returns a derived context carrying the per-call request ID
// assigned by the request ID middleware, so every log line and span produced
// by one storefront call shares an identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID stored in ctx.
// It returns an empty string when the middleware has not run.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
