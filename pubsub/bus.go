// Package pubsub implements the in-process cart-update channel. Webhook
// intake, the add-to-cart action, and the drawer host all publish onto one
// Bus; the reconciler subscribes and funnels every event into the same
// reconciliation routine.
package pubsub

import "sync"

// EventKind classifies a published event.
type EventKind int

const (
	// KindRerender is the generic "cart was rerendered" broadcast. It carries
	// no payload beyond its kind.
	KindRerender EventKind = iota

	// KindCartUpdate carries the cart's current item count, typically from a
	// webhook or a completed cart mutation.
	KindCartUpdate

	// KindDrawerOpened signals that the cart drawer became visible.
	KindDrawerOpened

	// KindDrawerContent signals that the drawer's cart contents changed.
	KindDrawerContent
)

// CartUpdate is the payload of a KindCartUpdate event.
type CartUpdate struct {
	ItemCount int
}

// Event is a single message on the Bus.
type Event struct {
	Kind   EventKind
	Update *CartUpdate // non-nil only for KindCartUpdate
}

// Bus is a minimal fan-out publisher. Publish never blocks: a subscriber
// whose buffer is full misses the event, which is acceptable because every
// event triggers the same idempotent reconciliation anyway.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns the receive channel plus a cancel function that removes the
// subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers e to every subscriber that has buffer space.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
