// Package call defines the minimal middleware contract shared by the
// storefront client and the middleware packages.
package call

import "context"

// Func is the minimal unit of work that middlewares wrap: one storefront
// call (cart fetch, recommendation fetch, add-to-cart post).
type Func func(ctx context.Context) error

// Middleware transforms a Func, allowing pre/post behavior composition.
type Middleware func(Func) Func

// Chain composes middlewares from left to right, i.e., Chain(A, B)(h) => A(B(h)).
func Chain(mw ...Middleware) Middleware {
	return func(next Func) Func {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}

// Wrap applies the middleware chain to a call and returns the wrapped call.
func Wrap(h Func, mw ...Middleware) Func {
	if len(mw) == 0 {
		return h
	}
	return Chain(mw...)(h)
}
