package policy

import "time"

// Resolver holds a set of endpoint groups and resolves an endpoint name to
// the best-matching group and its associated policy.
type Resolver struct {
	groups []*GroupBuilder
}

// NewResolver creates a Resolver from the supplied group builders.
func NewResolver(groups ...*GroupBuilder) *Resolver {
	return &Resolver{groups: groups}
}

// Defaults returns the resolver used when no custom policy set is supplied:
// the cart is cached for 30 seconds, recommendations per seed product for
// 5 minutes, and add-to-cart responses are never cached.
func Defaults() *Resolver {
	return NewResolver(
		Group("cart").
			Exact("cart.get").
			Policy(Policy{CacheTTL: 30 * time.Second}),
		Group("recommendations").
			Prefix("recommendations.").
			Policy(Policy{CacheTTL: 5 * time.Minute}),
		Group("mutations").
			Exact("cart.add").
			Policy(Policy{}),
	)
}

// Resolve finds the best-matching group for endpoint.
//
// Priority rules:
//   - Exact matches beat prefix matches, which beat regex matches.
//   - Among matches of the same kind the longer match wins.
//   - When two matches have equal kind and length the group that was
//     registered first (stable order) wins.
//
// If no group matches, ok is false.
func (res *Resolver) Resolve(endpoint string) (groupName string, pol *Policy, ok bool) {
	bestKind := matchKind(-1)
	bestLen := -1

	for _, g := range res.groups {
		for _, r := range g.rules {
			matched, mLen := r.match(endpoint)
			if !matched {
				continue
			}
			// A lower kind value means higher priority.
			better := bestKind < 0 ||
				r.kind < bestKind ||
				(r.kind == bestKind && mLen > bestLen)
			if better {
				bestKind = r.kind
				bestLen = mLen
				groupName = g.name
				pol = g.policy
				ok = true
			}
		}
	}
	return groupName, pol, ok
}

// TTL returns the cache TTL for endpoint, falling back to def when no group
// matches or the matched group carries no policy.
func (res *Resolver) TTL(endpoint string, def time.Duration) time.Duration {
	if _, pol, ok := res.Resolve(endpoint); ok && pol != nil {
		return pol.CacheTTL
	}
	return def
}
