package accsel

import (
	"net/http"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/cache"
	"github.com/HelgJet/cart-upsell-accsel/internal/core"
	"github.com/HelgJet/cart-upsell-accsel/metrics"
	"github.com/HelgJet/cart-upsell-accsel/policy"
	"github.com/HelgJet/cart-upsell-accsel/upsell"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Middleware execution order. Lower values run first (outermost).
const (
	orderRecovery  = 0
	orderRequestID = 10
	orderLogging   = 20
	orderTracing   = 30
	orderMetrics   = 40
	orderRateLimit = 50
	orderBreaker   = 60
)

// defaultL1MaxCost is the ristretto budget used when no cache is configured.
const defaultL1MaxCost = 10_000

// mwFactory builds a middleware once the full configuration is known. A nil
// return value means the middleware's dependency is absent and it is skipped.
type mwFactory func(*config) Middleware

// config holds the internal configuration assembled via functional options.
type config struct {
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	l1   *cache.L1
	l2   *cache.L2
	tier cache.Cache

	policies *policy.Resolver
	mw       core.Builder[mwFactory]

	httpClient          *http.Client
	recommendationsPath string
	recommendationLimit int

	drawer     upsell.Drawer
	resetDelay time.Duration

	collectionHandle    string
	collectionSectionID string

	settleDelay time.Duration
	minInterval time.Duration
}

func defaultConfig() config {
	return config{
		log:                 zap.NewNop(),
		policies:            policy.Defaults(),
		collectionHandle:    "all",
		collectionSectionID: "main-collection",
	}
}
