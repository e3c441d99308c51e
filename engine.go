package accsel

import (
	"context"

	"github.com/HelgJet/cart-upsell-accsel/cache"
	"github.com/HelgJet/cart-upsell-accsel/filter"
	"github.com/HelgJet/cart-upsell-accsel/metrics"
	"github.com/HelgJet/cart-upsell-accsel/pubsub"
	"github.com/HelgJet/cart-upsell-accsel/reconcile"
	"github.com/HelgJet/cart-upsell-accsel/storefront"
	"github.com/HelgJet/cart-upsell-accsel/upsell"
)

// Engine is the assembled accessory selector: a storefront client with a
// middleware chain, a tiered cache, the upsell widget with its resolver, the
// event-driven reconciler, and the collection filter engine. Construct it
// with [New] and functional [Option] values.
//
// Middleware execution order is determined by fixed priority levels, not by
// the order options are passed.
//
// Example:
//
//	eng, err := accsel.New("https://shop.example.com",
//		accsel.WithRecovery(),
//		accsel.WithRateLimitGlobal(10, 5),
//		accsel.WithCacheL1(10_000),
//	)
type Engine struct {
	sf         *storefront.Client
	cache      cache.Cache
	l2         *cache.L2
	bus        *pubsub.Bus
	widget     *upsell.Widget
	reconciler *reconcile.Reconciler
	filter     *filter.Engine
	metrics    *metrics.Metrics
}

// New creates an Engine talking to the storefront at baseURL.
func New(baseURL string, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.registry != nil {
		cfg.metrics = metrics.New(cfg.registry)
	}

	// When both L1 and L2 are configured, combine them into a tiered cache.
	switch {
	case cfg.l1 != nil && cfg.l2 != nil:
		cfg.tier = cache.NewTiered(cfg.l1, cfg.l2)
	case cfg.l1 != nil:
		cfg.tier = cfg.l1
	case cfg.l2 != nil:
		cfg.tier = cfg.l2
	default:
		l1, err := cache.NewL1(defaultL1MaxCost)
		if err != nil {
			return nil, err
		}
		cfg.tier = l1
	}

	var mws []Middleware
	for _, build := range cfg.mw.Build() {
		if mw := build(&cfg); mw != nil {
			mws = append(mws, mw)
		}
	}

	sfOpts := []storefront.Option{storefront.WithMiddleware(mws...)}
	if cfg.httpClient != nil {
		sfOpts = append(sfOpts, storefront.WithHTTPClient(cfg.httpClient))
	}
	if cfg.recommendationsPath != "" {
		sfOpts = append(sfOpts, storefront.WithRecommendationsPath(cfg.recommendationsPath))
	}
	sf, err := storefront.NewClient(baseURL, sfOpts...)
	if err != nil {
		return nil, err
	}

	resolverOpts := []upsell.ResolverOption{
		upsell.WithResolverLogger(cfg.log),
		upsell.WithPolicies(cfg.policies),
	}
	if cfg.recommendationLimit > 0 {
		resolverOpts = append(resolverOpts, upsell.WithRecommendationLimit(cfg.recommendationLimit))
	}
	resolver := upsell.NewResolver(sf, cfg.tier, resolverOpts...)

	bus := pubsub.NewBus()

	widgetOpts := []upsell.WidgetOption{
		upsell.WithBus(bus),
		upsell.WithLogger(cfg.log),
	}
	if cfg.drawer != nil {
		widgetOpts = append(widgetOpts, upsell.WithDrawer(cfg.drawer))
	}
	if cfg.metrics != nil {
		widgetOpts = append(widgetOpts, upsell.WithMetrics(cfg.metrics))
	}
	if cfg.resetDelay > 0 {
		widgetOpts = append(widgetOpts, upsell.WithResetDelay(cfg.resetDelay))
	}
	widget := upsell.NewWidget(resolver, widgetOpts...)

	recOpts := []reconcile.Option{reconcile.WithLogger(cfg.log)}
	if cfg.metrics != nil {
		recOpts = append(recOpts, reconcile.WithMetrics(cfg.metrics))
	}
	if cfg.settleDelay > 0 {
		recOpts = append(recOpts, reconcile.WithSettleDelay(cfg.settleDelay))
	}
	if cfg.minInterval > 0 {
		recOpts = append(recOpts, reconcile.WithMinInterval(cfg.minInterval))
	}
	reconciler := reconcile.New(widget, bus, recOpts...)

	return &Engine{
		sf:         sf,
		cache:      cfg.tier,
		l2:         cfg.l2,
		bus:        bus,
		widget:     widget,
		reconciler: reconciler,
		filter: filter.New(sf, cfg.collectionHandle, cfg.collectionSectionID,
			filter.WithLogger(cfg.log)),
		metrics: cfg.metrics,
	}, nil
}

// Storefront returns the underlying storefront client.
func (e *Engine) Storefront() *storefront.Client { return e.sf }

// Cache returns the configured cache tier.
func (e *Engine) Cache() cache.Cache { return e.cache }

// Bus returns the engine's event bus. Publish cart updates here to trigger
// reconciliation.
func (e *Engine) Bus() *pubsub.Bus { return e.bus }

// Widget returns the upsell widget.
func (e *Engine) Widget() *upsell.Widget { return e.widget }

// Filter returns the collection filter engine.
func (e *Engine) Filter() *filter.Engine { return e.filter }

// Metrics returns the engine's metrics, or nil when no registry was
// configured.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// Redis returns the L2 cache tier, or nil when none is configured. Useful
// for health checks.
func (e *Engine) Redis() *cache.L2 { return e.l2 }

// Run attaches the widget and drives reconciliation until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	e.widget.Attach(ctx)
	return e.reconciler.Run(ctx)
}

// Close releases the engine's external connections and stops the filter
// engine's settle timer.
func (e *Engine) Close() error {
	e.filter.Close()
	if e.l2 != nil {
		return e.l2.Close()
	}
	return nil
}
