// Package cache provides a pluggable caching interface with an in-process
// L1 implementation backed by ristretto and an optional Redis L2. Cart and
// recommendation entries live under a reserved key namespace so that a cart
// mutation can invalidate them wholesale.
package cache

import (
	"context"
	"time"
)

// Cache is the public caching contract exposed to user logic.
type Cache interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A zero TTL means the
	// entry has no automatic expiration.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// GetOrSet returns the cached value for key. On a cache miss it calls
	// loader exactly once, stores the result, and returns it.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error)

	// ClearPrefix removes every entry whose key starts with prefix. Used to
	// drop all cart-derived state when the cart is known to have changed.
	ClearPrefix(ctx context.Context, prefix string) error
}
