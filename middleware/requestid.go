package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
)

// newRequestID generates a random hex-encoded request identifier.
func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// RequestID returns a middleware that ensures a request ID is present in the
// context before the call runs.
func RequestID() call.Middleware {
	return func(next call.Func) call.Func {
		return func(ctx context.Context) error {
			if contextx.RequestIDFromContext(ctx) == "" {
				ctx = contextx.WithRequestID(ctx, newRequestID())
			}
			return next(ctx)
		}
	}
}
