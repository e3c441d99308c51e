// Package metrics defines the Prometheus collectors for the upsell engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the engine exports. Pass a dedicated
// registry in tests; pass prometheus.DefaultRegisterer in the daemon.
type Metrics struct {
	StorefrontCalls    *prometheus.CounterVec
	StorefrontDuration *prometheus.HistogramVec
	Resolutions        *prometheus.CounterVec
	AddToCart          *prometheus.CounterVec
	ReconcileSignals   *prometheus.CounterVec
	CacheClears        prometheus.Counter
}

// New creates and registers the engine's collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StorefrontCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accsel_storefront_calls_total",
			Help: "Storefront API calls by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		StorefrontDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accsel_storefront_call_duration_seconds",
			Help:    "Storefront API call latency by endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accsel_resolutions_total",
			Help: "Recommendation resolutions by outcome (visible, hidden, error).",
		}, []string{"outcome"}),
		AddToCart: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accsel_add_to_cart_total",
			Help: "Add-to-cart attempts by outcome.",
		}, []string{"outcome"}),
		ReconcileSignals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "accsel_reconcile_signals_total",
			Help: "Cart-change signals by source and classification.",
		}, []string{"signal", "classification"}),
		CacheClears: f.NewCounter(prometheus.CounterOpts{
			Name: "accsel_cache_clears_total",
			Help: "Wholesale cache invalidations after detected cart changes.",
		}),
	}
}
