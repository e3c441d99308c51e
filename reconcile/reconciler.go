// Package reconcile re-derives the upsell widget's visibility and content
// whenever the cart may have changed. Rerender broadcasts, cart-update
// messages, and drawer mutations all funnel through one debounced, idempotent
// routine: invalidate the cache, refetch the cart, and let the widget settle
// into visible or hidden.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/debounce"
	"github.com/HelgJet/cart-upsell-accsel/metrics"
	"github.com/HelgJet/cart-upsell-accsel/pubsub"
	"github.com/HelgJet/cart-upsell-accsel/ratelimit"
	"github.com/HelgJet/cart-upsell-accsel/upsell"
	"go.uber.org/zap"
)

// Classification describes what an item-count delta looked like. It only
// affects the log line and the metrics label; every classification triggers
// the same reconciliation.
type Classification string

const (
	ClassAddition Classification = "addition"
	ClassRemoval  Classification = "removal"
	ClassNoChange Classification = "no-change"
)

// DefaultSettleDelay is how long the reconciler waits after the last signal
// in a burst before re-checking, letting upstream cart state settle first.
const DefaultSettleDelay = 100 * time.Millisecond

// DefaultMinInterval is the minimum spacing between reconciliation cycles.
// Signals arriving faster than this are dropped, not queued; the next signal
// re-attempts.
const DefaultMinInterval = 250 * time.Millisecond

// Reconciler subscribes to the cart-update bus and drives the widget.
// Previous item count and the call-rate gate are explicit fields here, not
// package globals; a Reconciler is initialized once per process and needs no
// teardown beyond canceling Run's context.
type Reconciler struct {
	widget *upsell.Widget
	bus    *pubsub.Bus
	log    *zap.Logger
	m      *metrics.Metrics

	gate        *ratelimit.Gate
	settleDelay time.Duration

	mu        sync.Mutex
	prevCount int
	havePrev  bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler's logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reconciler) { r.log = log }
}

// WithMetrics attaches the engine's collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) { r.m = m }
}

// WithSettleDelay overrides the settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(r *Reconciler) { r.settleDelay = d }
}

// WithMinInterval overrides the minimum spacing between reconciliations.
func WithMinInterval(d time.Duration) Option {
	return func(r *Reconciler) { r.gate = ratelimit.NewGate(d) }
}

// New creates a Reconciler that drives widget from events on bus.
func New(widget *upsell.Widget, bus *pubsub.Bus, opts ...Option) *Reconciler {
	r := &Reconciler{
		widget:      widget,
		bus:         bus,
		log:         zap.NewNop(),
		settleDelay: DefaultSettleDelay,
	}
	for _, o := range opts {
		o(r)
	}
	if r.gate == nil {
		r.gate = ratelimit.NewGate(DefaultMinInterval)
	}
	return r
}

// Run subscribes to the bus and processes signals until ctx is canceled.
// It always returns nil after a clean shutdown; it blocks, so call it from
// its own goroutine.
func (r *Reconciler) Run(ctx context.Context) error {
	events, cancel := r.bus.Subscribe(16)
	defer cancel()

	settle := debounce.New("cart-settle", r.settleDelay, func() {
		if !r.gate.Allow() {
			r.log.Debug("reconciliation dropped by rate gate")
			return
		}
		r.reconcile(ctx)
	})
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			r.observe(e)
			settle.Trigger()
		}
	}
}

// observe classifies the signal for diagnostics. All kinds fall through to
// the same debounced reconciliation.
func (r *Reconciler) observe(e pubsub.Event) {
	signal := signalName(e.Kind)
	class := ClassNoChange

	if e.Kind == pubsub.KindCartUpdate && e.Update != nil {
		class = r.classify(e.Update.ItemCount)
	}

	r.log.Debug("cart-change signal",
		zap.String("signal", signal),
		zap.String("classification", string(class)),
	)
	if r.m != nil {
		r.m.ReconcileSignals.WithLabelValues(signal, string(class)).Inc()
	}
}

// classify compares the reported item count with the previous one. The first
// report has nothing to compare against and counts as no-change.
func (r *Reconciler) classify(count int) Classification {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, have := r.prevCount, r.havePrev
	r.prevCount, r.havePrev = count, true

	switch {
	case !have || count == prev:
		return ClassNoChange
	case count > prev:
		return ClassAddition
	default:
		return ClassRemoval
	}
}

// reconcile is the single funnel every signal ends in: drop all cart-derived
// cache entries and run one resolution cycle. It is idempotent and safe to
// invoke redundantly; the widget's re-entrancy guard drops overlapping runs.
func (r *Reconciler) reconcile(ctx context.Context) {
	if r.m != nil {
		r.m.CacheClears.Inc()
	}
	r.widget.Invalidate(ctx)
	r.widget.Init(ctx)
}

func signalName(k pubsub.EventKind) string {
	switch k {
	case pubsub.KindRerender:
		return "rerender"
	case pubsub.KindCartUpdate:
		return "cart-update"
	case pubsub.KindDrawerOpened:
		return "drawer-open"
	case pubsub.KindDrawerContent:
		return "drawer-content"
	default:
		return "unknown"
	}
}
