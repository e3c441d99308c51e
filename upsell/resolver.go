// Package upsell implements recommendation resolution and the upsell widget
// lifecycle: pick a seed product from the cart, fetch related products,
// exclude everything already in the cart, and surface the first survivor.
package upsell

import (
	"context"
	"encoding/json"

	"github.com/HelgJet/cart-upsell-accsel/cache"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
	"github.com/HelgJet/cart-upsell-accsel/policy"
	"github.com/HelgJet/cart-upsell-accsel/storefront"
	"go.uber.org/zap"
)

// Storefront is the slice of the storefront client the upsell engine needs.
type Storefront interface {
	Cart(ctx context.Context) (*storefront.Cart, error)
	Recommendations(ctx context.Context, seedProductID int64, limit int) ([]storefront.Product, error)
	AddToCart(ctx context.Context, req storefront.AddRequest) (*storefront.AddResponse, error)
}

// Resolver derives the single product the widget should offer.
type Resolver struct {
	sf    Storefront
	cache cache.Cache
	pol   *policy.Resolver
	log   *zap.Logger
	limit int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the resolver's logger.
func WithResolverLogger(log *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// WithPolicies overrides the TTL policy set.
func WithPolicies(pol *policy.Resolver) ResolverOption {
	return func(r *Resolver) { r.pol = pol }
}

// WithRecommendationLimit overrides how many candidates are requested per seed.
func WithRecommendationLimit(n int) ResolverOption {
	return func(r *Resolver) { r.limit = n }
}

// NewResolver creates a Resolver backed by the given storefront and cache.
func NewResolver(sf Storefront, c cache.Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		sf:    sf,
		cache: c,
		pol:   policy.Defaults(),
		log:   zap.NewNop(),
		limit: storefront.DefaultRecommendationLimit,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// CurrentCart returns the cart, served from cache while the cart TTL holds.
func (r *Resolver) CurrentCart(ctx context.Context) (*storefront.Cart, error) {
	ttl := r.pol.TTL(storefront.EndpointCart, cache.CartTTL)
	b, err := r.cache.GetOrSet(ctx, cache.CartKey(), ttl, func(ctx context.Context) ([]byte, error) {
		cart, err := r.sf.Cart(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cart)
	})
	if err != nil {
		return nil, err
	}
	var cart storefront.Cart
	if err := json.Unmarshal(b, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Resolve picks the product to offer. It returns (nil, nil) when there is
// nothing to recommend: empty cart, or every candidate already in the cart.
//
// The seed is the cart's first line item's product. A cached resolution for
// that seed short-circuits the recommendations fetch; a fresh resolution is
// cached keyed by seed.
func (r *Resolver) Resolve(ctx context.Context) (*storefront.Product, error) {
	cart, err := r.CurrentCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart.Empty() {
		return nil, nil
	}
	// Downstream calls carry the cart token for log and span correlation.
	ctx = contextx.WithCartToken(ctx, cart.Token)
	seed := cart.Items[0].ProductID

	key := cache.RecommendationKey(seed)
	if b, ok, _ := r.cache.Get(ctx, key); ok {
		var p storefront.Product
		if err := json.Unmarshal(b, &p); err == nil {
			return &p, nil
		}
		// Undecodable entry: fall through and resolve fresh. The overwrite
		// below replaces it.
		r.log.Warn("dropping undecodable cached recommendation", zap.Int64("seed", seed))
	}

	candidates, err := r.sf.Recommendations(ctx, seed, r.limit)
	if err != nil {
		return nil, err
	}

	inCart := cart.Handles()
	for _, p := range candidates {
		if _, resident := inCart[p.Handle]; resident {
			continue
		}
		if b, err := json.Marshal(p); err == nil {
			ttl := r.pol.TTL(storefront.EndpointRecommendations, cache.RecommendationTTL)
			_ = r.cache.Set(ctx, key, b, ttl)
		}
		return &p, nil
	}
	return nil, nil
}

// Invalidate drops every cart-derived cache entry. Call it whenever the cart
// is known to have changed.
func (r *Resolver) Invalidate(ctx context.Context) {
	if err := r.cache.ClearPrefix(ctx, cache.Prefix); err != nil {
		r.log.Warn("cache invalidation failed", zap.Error(err))
	}
}
