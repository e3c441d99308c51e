package contextx

import "context"

// WithCartToken returns a derived context carrying the storefront cart token,
// so that log lines and spans produced downstream can be correlated with a
// specific cart session.
func WithCartToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, cartTokenKey, token)
}

// CartTokenFromContext extracts the cart token stored in ctx.
// It returns an empty string when no token is present.
func CartTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(cartTokenKey).(string)
	return token
}
