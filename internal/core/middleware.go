// Package core holds the wiring helpers behind the public engine surface.
package core

import (
	"cmp"
	"slices"
)

// entry pairs a middleware value with a deterministic execution order.
// Lower Order values run first.
type entry[M any] struct {
	Value M
	Order int
}

// Builder collects middleware entries and produces a sorted slice ready for
// chaining. The zero value is ready to use.
type Builder[M any] struct {
	entries []entry[M]
}

// Add registers a middleware with the given order.
func (b *Builder[M]) Add(order int, m M) {
	b.entries = append(b.entries, entry[M]{Value: m, Order: order})
}

// Build sorts the collected middleware by Order (stable) and returns the
// resulting slice.
func (b *Builder[M]) Build() []M {
	slices.SortStableFunc(b.entries, func(a, c entry[M]) int {
		return cmp.Compare(a.Order, c.Order)
	})

	out := make([]M, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, e.Value)
	}
	return out
}
