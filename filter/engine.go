// Package filter implements the collection filter engine: it tracks the
// active facet parameters for one collection, coalesces bursts of facet
// changes into one fetch of the re-rendered result section, and keeps a
// history of applied URL states so the host can sync browser history.
package filter

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/debounce"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long the engine waits after the last facet change
// in a burst before fetching the re-rendered section. Flipping three checkboxes
// in quick succession renders once, not three times.
const DefaultSettleDelay = 200 * time.Millisecond

// SectionFetcher is the slice of the storefront client the engine needs.
type SectionFetcher interface {
	CollectionSection(ctx context.Context, handle, sectionID string, query url.Values) (string, error)
}

// Engine applies and removes collection facets. All methods are safe for
// concurrent use; fetch failures keep the previous result visible.
type Engine struct {
	sf        SectionFetcher
	handle    string
	sectionID string
	log       *zap.Logger

	settleDelay time.Duration
	settle      *debounce.Timer

	mu      sync.Mutex
	ctx     context.Context // from the latest facet change, used by the debounced fetch
	active  url.Values
	loading bool
	result  string
	history []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithSettleDelay overrides how long facet changes coalesce before the section
// is fetched. A zero delay disables coalescing and fetches synchronously.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) { e.settleDelay = d }
}

// New creates an Engine for the collection at handle, rendering sectionID.
func New(sf SectionFetcher, handle, sectionID string, opts ...Option) *Engine {
	e := &Engine{
		sf:          sf,
		handle:      handle,
		sectionID:   sectionID,
		log:         zap.NewNop(),
		settleDelay: DefaultSettleDelay,
		active:      url.Values{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.settleDelay > 0 {
		e.settle = debounce.New("filter-settle", e.settleDelay, e.refreshSettled)
	}
	return e
}

// Apply sets a facet parameter and schedules a refresh.
func (e *Engine) Apply(ctx context.Context, param, value string) {
	e.mu.Lock()
	e.active.Set(param, value)
	e.mu.Unlock()
	e.changed(ctx)
}

// Remove drops a facet parameter and schedules a refresh.
func (e *Engine) Remove(ctx context.Context, param string) {
	e.mu.Lock()
	e.active.Del(param)
	e.mu.Unlock()
	e.changed(ctx)
}

// Clear drops every facet and schedules a refresh.
func (e *Engine) Clear(ctx context.Context) {
	e.mu.Lock()
	e.active = url.Values{}
	e.mu.Unlock()
	e.changed(ctx)
}

// Close stops the settle timer. A pending fetch is dropped.
func (e *Engine) Close() {
	if e.settle != nil {
		e.settle.Stop()
	}
}

// changed routes a facet change into the debounced fetch, or fetches
// synchronously when coalescing is disabled.
func (e *Engine) changed(ctx context.Context) {
	if e.settle == nil {
		e.refresh(ctx)
		return
	}
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
	e.settle.Trigger()
}

// refreshSettled runs once per settled burst, fetching under the context of
// the burst's last change.
func (e *Engine) refreshSettled() {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	e.refresh(ctx)
}

// URL returns the collection path with the active facets encoded, the state
// the host should push into browser history.
func (e *Engine) URL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.urlLocked()
}

func (e *Engine) urlLocked() string {
	u := "/collections/" + e.handle
	if enc := e.active.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Result returns the most recently fetched rendered section.
func (e *Engine) Result() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.result
}

// Loading reports whether a fetch is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// History returns the URL states applied so far, oldest first.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.history))
	copy(out, e.history)
	return out
}

// refresh fetches the rendered section for the current facet set. On failure
// the previous result stays in place.
func (e *Engine) refresh(ctx context.Context) {
	e.mu.Lock()
	e.loading = true
	query := url.Values{}
	for k, vs := range e.active {
		query[k] = append([]string(nil), vs...)
	}
	e.mu.Unlock()

	html, err := e.sf.CollectionSection(ctx, e.handle, e.sectionID, query)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false
	if err != nil {
		e.log.Warn("filter refresh failed, keeping previous result",
			zap.String("collection", e.handle),
			zap.Error(err),
		)
		return
	}
	e.result = html
	e.history = append(e.history, e.urlLocked())
}
