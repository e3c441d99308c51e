// Package accsel implements a headless cart-drawer upsell engine for Shopify
// storefronts: a storefront client, a TTL cache, recommendation resolution,
// and event-driven reconciliation, composed via minimal call middleware.
package accsel

import "github.com/HelgJet/cart-upsell-accsel/call"

// CallFunc is the minimal unit of work that middlewares wrap: one storefront
// call (cart fetch, recommendation fetch, add-to-cart post).
type CallFunc = call.Func

// Middleware transforms a CallFunc, allowing pre/post behavior composition.
type Middleware = call.Middleware

// Chain composes middlewares from left to right, i.e., Chain(A, B)(h) => A(B(h)).
func Chain(mw ...Middleware) Middleware {
	return call.Chain(mw...)
}

// Wrap applies the middleware chain to a call and returns the wrapped call.
func Wrap(h CallFunc, mw ...Middleware) CallFunc {
	return call.Wrap(h, mw...)
}
