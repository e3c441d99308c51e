package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// L2 is a Redis-backed cache layer. All operations fail soft: if Redis is
// unavailable, methods return a miss (or silently discard the write) instead
// of surfacing the error to the caller. A cold L2 only costs extra storefront
// fetches, never correctness.
type L2 struct {
	rdb *redis.Client
}

// NewL2 creates a new Redis-backed L2 cache.
func NewL2(addr, password string, db int) *L2 {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &L2{rdb: rdb}
}

// Get retrieves a value by key. Returns (nil, false, nil) on a miss or when
// Redis is unreachable.
func (l *L2) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := l.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		// Fail soft: treat connection errors as a miss.
		return nil, false, nil
	}
	return val, true, nil
}

// GetWithTTL retrieves a value together with its remaining time to live, so a
// caller copying the entry into another layer can bound the copy's lifetime.
// ttl is zero when the entry has no expiration. Like Get, it fails soft: a
// miss and an unreachable Redis both report ok false.
func (l *L2) GetWithTTL(ctx context.Context, key string) (val []byte, ttl time.Duration, ok bool) {
	pipe := l.rdb.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false
	}
	val, err := getCmd.Bytes()
	if err != nil {
		return nil, 0, false
	}
	// PTTL reports negative durations for missing keys and keys without an
	// expiration.
	if rem := ttlCmd.Val(); rem > 0 {
		ttl = rem
	}
	return val, ttl, true
}

// Set stores a value under key with the given TTL. A zero TTL means the entry
// has no automatic expiration. Errors are silently discarded (fail soft).
func (l *L2) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = l.rdb.Set(ctx, key, val, ttl).Err()
	return nil
}

// ClearPrefix deletes every key starting with prefix using incremental SCAN,
// so it never blocks Redis the way KEYS would. Errors are discarded: a missed
// deletion only means a stale entry that the TTL will expire anyway.
func (l *L2) ClearPrefix(ctx context.Context, prefix string) error {
	iter := l.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var doomed []string
	for iter.Next(ctx) {
		doomed = append(doomed, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil
	}
	if len(doomed) > 0 {
		_ = l.rdb.Del(ctx, doomed...).Err()
	}
	return nil
}

// Ping checks the Redis connection.
func (l *L2) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2) Close() error {
	return l.rdb.Close()
}
