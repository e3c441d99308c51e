package upsell

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/metrics"
	"github.com/HelgJet/cart-upsell-accsel/pubsub"
	"github.com/HelgJet/cart-upsell-accsel/storefront"
	"go.uber.org/zap"
)

// State is the widget's lifecycle state.
type State int

const (
	// StateUnattached is the zero state before the first Attach.
	StateUnattached State = iota
	// StateInitializing is entered on every Init while resolution runs.
	StateInitializing
	// StateVisible means a recommendation is populated and shown.
	StateVisible
	// StateHidden means resolution yielded nothing (or failed) and the widget
	// shows nothing.
	StateHidden
)

// Label is the add-to-cart control's visible text.
type Label string

const (
	LabelIdle   Label = "Add to cart"
	LabelAdding Label = "Adding..."
	LabelAdded  Label = "Added"
)

// ControlState is the add-to-cart control's current presentation.
type ControlState struct {
	Label    Label
	Disabled bool
}

// RenderModel is the data the host renders when the widget is visible: one
// recommended product bound to its first variant.
type RenderModel struct {
	ProductID int64
	VariantID int64
	Title     string
	Handle    string
	Image     string
	Price     int64
}

// DefaultResetDelay is how long the "Added" confirmation stays on the control
// before it returns to idle.
const DefaultResetDelay = 2 * time.Second

// Widget is the upsell widget's state machine. At most one recommended
// product is displayed at a time, and never one already in the cart.
//
// Init is idempotent under re-entry: a call while another is in flight is
// dropped, not queued. All external triggers (rerender events, cart updates,
// drawer mutations) route through the reconciler into Init.
type Widget struct {
	resolver *Resolver
	sf       Storefront
	drawer   Drawer
	bus      *pubsub.Bus
	log      *zap.Logger
	m        *metrics.Metrics

	resetDelay time.Duration

	initInProgress atomic.Bool

	mu          sync.Mutex
	state       State
	initialized bool
	render      RenderModel
	control     ControlState
}

// WidgetOption configures a Widget.
type WidgetOption func(*Widget)

// WithDrawer attaches the host drawer capability.
func WithDrawer(d Drawer) WidgetOption {
	return func(w *Widget) { w.drawer = d }
}

// WithBus sets the bus the widget broadcasts rerender events on.
func WithBus(b *pubsub.Bus) WidgetOption {
	return func(w *Widget) { w.bus = b }
}

// WithLogger sets the widget's logger.
func WithLogger(log *zap.Logger) WidgetOption {
	return func(w *Widget) { w.log = log }
}

// WithMetrics attaches the engine's collectors.
func WithMetrics(m *metrics.Metrics) WidgetOption {
	return func(w *Widget) { w.m = m }
}

// WithResetDelay overrides how long "Added" is shown before the control
// returns to idle.
func WithResetDelay(d time.Duration) WidgetOption {
	return func(w *Widget) { w.resetDelay = d }
}

// NewWidget creates a Widget around the given resolver.
func NewWidget(r *Resolver, opts ...WidgetOption) *Widget {
	w := &Widget{
		resolver:   r,
		sf:         r.sf,
		log:        zap.NewNop(),
		resetDelay: DefaultResetDelay,
		control:    ControlState{Label: LabelIdle},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Attach performs first-time setup. Only the first call runs Init; repeat
// attachments are no-ops.
func (w *Widget) Attach(ctx context.Context) {
	w.mu.Lock()
	if w.initialized {
		w.mu.Unlock()
		return
	}
	w.initialized = true
	w.mu.Unlock()

	w.Init(ctx)
}

// Init runs one resolution cycle and settles the widget into Visible or
// Hidden. A call while another Init is in flight returns immediately without
// side effects. Resolution failures are logged and hide the widget; they
// never propagate.
func (w *Widget) Init(ctx context.Context) {
	if !w.initInProgress.CompareAndSwap(false, true) {
		return
	}
	defer w.initInProgress.Store(false)

	w.setState(StateInitializing)

	product, err := w.resolver.Resolve(ctx)
	switch {
	case err != nil:
		w.log.Warn("resolution failed, hiding widget", zap.Error(err))
		w.hide()
		w.countResolution("error")
	case product == nil:
		w.hide()
		w.countResolution("hidden")
	default:
		w.show(product)
		w.countResolution("visible")
	}
}

// AddToCart adds the given variant (quantity 1) and walks the control through
// Adding -> Added -> Idle. On success the cache is invalidated, resolution is
// re-run so the offer reflects the changed cart, and after the reset delay a
// rerender event is broadcast. On failure the control returns straight to
// idle; no retry.
func (w *Widget) AddToCart(ctx context.Context, variantID int64) error {
	w.mu.Lock()
	if w.control.Disabled {
		w.mu.Unlock()
		return nil
	}
	w.control = ControlState{Label: LabelAdding, Disabled: true}
	w.mu.Unlock()

	req := storefront.AddRequest{
		Items: []storefront.AddItem{{ID: variantID, Quantity: 1}},
	}
	if w.drawer != nil {
		for _, s := range w.drawer.SectionsToRender() {
			req.Sections = append(req.Sections, s.ID)
		}
	}

	resp, err := w.sf.AddToCart(ctx, req)
	if err != nil {
		w.log.Warn("add to cart failed", zap.Int64("variant_id", variantID), zap.Error(err))
		w.countAdd("error")
		w.mu.Lock()
		w.control = ControlState{Label: LabelIdle}
		w.mu.Unlock()
		return err
	}
	w.countAdd("ok")

	if w.drawer != nil {
		w.drawer.RenderContents(resp)
	}

	w.mu.Lock()
	w.control = ControlState{Label: LabelAdded, Disabled: true}
	w.mu.Unlock()

	w.resolver.Invalidate(ctx)
	w.Init(ctx)

	time.AfterFunc(w.resetDelay, func() {
		w.mu.Lock()
		w.control = ControlState{Label: LabelIdle}
		w.mu.Unlock()
		if w.bus != nil {
			w.bus.Publish(pubsub.Event{Kind: pubsub.KindRerender})
		}
	})
	return nil
}

// Invalidate drops every cart-derived cache entry so the next Init works
// from fresh storefront state.
func (w *Widget) Invalidate(ctx context.Context) {
	w.resolver.Invalidate(ctx)
}

// State returns the widget's current lifecycle state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Render returns the current render model. ok is false while the widget is
// hidden.
func (w *Widget) Render() (RenderModel, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.render, w.state == StateVisible
}

// Control returns the add-to-cart control's current presentation.
func (w *Widget) Control() ControlState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.control
}

func (w *Widget) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *Widget) show(p *storefront.Product) {
	model := RenderModel{
		ProductID: p.ID,
		VariantID: p.FirstVariantID(),
		Title:     p.Title,
		Handle:    p.Handle,
		Image:     p.Image(),
	}
	if len(p.Variants) > 0 {
		model.Price = p.Variants[0].Price
	}

	w.mu.Lock()
	w.state = StateVisible
	w.render = model
	w.mu.Unlock()
}

func (w *Widget) hide() {
	w.mu.Lock()
	w.state = StateHidden
	w.render = RenderModel{}
	w.mu.Unlock()
}

func (w *Widget) countResolution(outcome string) {
	if w.m != nil {
		w.m.Resolutions.WithLabelValues(outcome).Inc()
	}
}

func (w *Widget) countAdd(outcome string) {
	if w.m != nil {
		w.m.AddToCart.WithLabelValues(outcome).Inc()
	}
}
