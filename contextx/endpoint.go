package contextx

import "context"

// WithEndpoint returns a derived context naming the storefront endpoint the
// current call targets (e.g. "cart.get", "recommendations.related", "cart.add").
// Middlewares use the endpoint name for logging, metrics labels, and policy
// resolution.
func WithEndpoint(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, endpointKey, name)
}

// EndpointFromContext extracts the endpoint name stored in ctx.
// It returns an empty string when no endpoint is present.
func EndpointFromContext(ctx context.Context) string {
	name, _ := ctx.Value(endpointKey).(string)
	return name
}
