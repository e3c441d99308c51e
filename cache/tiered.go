package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// Tiered combines an L1 (in-process) and L2 (Redis) cache. Reads check L1
// first, then L2, then the loader. Writes populate both layers.
type Tiered struct {
	l1 *L1
	l2 *L2

	mu    sync.Mutex
	loads map[string]*call
}

// NewTiered creates a two-level cache.
func NewTiered(l1 *L1, l2 *L2) *Tiered {
	return &Tiered{
		l1:    l1,
		l2:    l2,
		loads: make(map[string]*call),
	}
}

// Get checks L1, then L2. An L2 hit is promoted into L1 with the entry's
// remaining Redis TTL, so the promoted copy cannot outlive the entry it
// shadows. Entries without a bounded expiry are served but not promoted; a
// zero-TTL copy would sit in L1 until the next prefix clear.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	// L1
	if v, ok, err := t.l1.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}
	// L2
	v, rem, ok := t.l2.GetWithTTL(ctx, key)
	if !ok {
		return nil, false, nil
	}
	if rem > 0 {
		_ = t.l1.Set(ctx, key, v, rem)
	}
	return v, true, nil
}

// Set writes the value to both L2 and L1.
func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = t.l2.Set(ctx, key, val, ttl)
	return t.l1.Set(ctx, key, val, ttl)
}

// ClearPrefix drops the prefix from both layers. L2 first, so a concurrent
// reader cannot re-promote an entry L1 just dropped.
func (t *Tiered) ClearPrefix(ctx context.Context, prefix string) error {
	_ = t.l2.ClearPrefix(ctx, prefix)
	return t.l1.ClearPrefix(ctx, prefix)
}

// GetOrSet follows the L1 → L2 → loader pattern, deduplicating concurrent
// loads for the same key.
func (t *Tiered) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	// 1. Check L1.
	if v, ok, _ := t.l1.Get(ctx, key); ok {
		return v, nil
	}

	// 2. Check L2. On hit, promote to L1.
	if v, ok, _ := t.l2.Get(ctx, key); ok {
		_ = t.l1.Set(ctx, key, v, ttl)
		return bytes.Clone(v), nil
	}

	// 3. Singleflight loader.
	t.mu.Lock()
	if c, ok := t.loads[key]; ok {
		t.mu.Unlock()
		c.wg.Wait()
		if c.err != nil {
			return nil, c.err
		}
		return bytes.Clone(c.val), nil
	}

	c := &call{}
	c.wg.Add(1)
	t.loads[key] = c
	t.mu.Unlock()

	c.val, c.err = loader(ctx)
	if c.err == nil {
		// 4. Store in L2, then L1.
		_ = t.l2.Set(ctx, key, c.val, ttl)
		_ = t.l1.Set(ctx, key, c.val, ttl)
	}
	c.wg.Done()

	t.mu.Lock()
	delete(t.loads, key)
	t.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	return bytes.Clone(c.val), nil
}
