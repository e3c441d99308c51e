package accsel

import (
	"net/http"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/breaker"
	"github.com/HelgJet/cart-upsell-accsel/cache"
	"github.com/HelgJet/cart-upsell-accsel/middleware"
	"github.com/HelgJet/cart-upsell-accsel/policy"
	"github.com/HelgJet/cart-upsell-accsel/ratelimit"
	"github.com/HelgJet/cart-upsell-accsel/tracing"
	"github.com/HelgJet/cart-upsell-accsel/upsell"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option configures an Engine.
type Option func(*config) error

// WithLogger sets the engine's logger. Every component the engine builds
// inherits it.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) error {
		c.log = log
		return nil
	}
}

// WithRecovery wraps storefront calls so that a panic inside a call returns
// an error instead of crashing the process.
func WithRecovery() Option {
	return func(c *config) error {
		c.mw.Add(orderRecovery, func(c *config) Middleware {
			return middleware.Recovery(c.log)
		})
		return nil
	}
}

// WithRequestID assigns each storefront call a request ID for log and trace
// correlation.
func WithRequestID() Option {
	return func(c *config) error {
		c.mw.Add(orderRequestID, func(*config) Middleware {
			return middleware.RequestID()
		})
		return nil
	}
}

// WithLogging logs every storefront call at debug level and failures at warn.
func WithLogging() Option {
	return func(c *config) error {
		c.mw.Add(orderLogging, func(c *config) Middleware {
			return middleware.Logging(c.log)
		})
		return nil
	}
}

// WithTracing emits a client span per storefront call using tp.
func WithTracing(tp trace.TracerProvider) Option {
	return func(c *config) error {
		c.mw.Add(orderTracing, func(*config) Middleware {
			return tracing.Middleware(&tracing.Config{TracerProvider: tp})
		})
		return nil
	}
}

// WithMetricsRegistry registers the engine's metrics on reg and records every
// storefront call.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(c *config) error {
		c.registry = reg
		c.mw.Add(orderMetrics, func(c *config) Middleware {
			if c.metrics == nil {
				return nil
			}
			return middleware.Metrics(c.metrics)
		})
		return nil
	}
}

// WithRateLimitGlobal applies a token-bucket rate limit across all
// storefront calls, plus any per-group limits the policy resolver defines.
func WithRateLimitGlobal(rps float64, burst int) Option {
	return func(c *config) error {
		lim := ratelimit.NewLimiter(rps, burst)
		c.mw.Add(orderRateLimit, func(c *config) Middleware {
			return middleware.RateLimit(lim, c.policies)
		})
		return nil
	}
}

// WithBreaker sheds storefront calls per endpoint once failures cross the
// configured threshold.
func WithBreaker(cfg breaker.Config) Option {
	return func(c *config) error {
		g := breaker.NewGroup(cfg)
		c.mw.Add(orderBreaker, func(*config) Middleware {
			return middleware.Breaker(g)
		})
		return nil
	}
}

// WithCacheL1 enables an in-process cache with the given ristretto cost
// budget.
func WithCacheL1(maxCost int64) Option {
	return func(c *config) error {
		l1, err := cache.NewL1(maxCost)
		if err != nil {
			return err
		}
		c.l1 = l1
		return nil
	}
}

// WithCacheL2 enables a Redis cache tier. When combined with WithCacheL1 the
// two are stacked into a tiered cache.
func WithCacheL2(addr, password string, db int) Option {
	return func(c *config) error {
		c.l2 = cache.NewL2(addr, password, db)
		return nil
	}
}

// WithPolicies replaces the default cache-TTL and rate-limit policies.
func WithPolicies(p *policy.Resolver) Option {
	return func(c *config) error {
		c.policies = p
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for storefront calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) error {
		c.httpClient = hc
		return nil
	}
}

// WithRecommendationsPath overrides the product recommendations API path.
func WithRecommendationsPath(p string) Option {
	return func(c *config) error {
		c.recommendationsPath = p
		return nil
	}
}

// WithRecommendationLimit caps how many related products are requested per
// resolution.
func WithRecommendationLimit(n int) Option {
	return func(c *config) error {
		c.recommendationLimit = n
		return nil
	}
}

// WithDrawer connects the cart drawer the widget renders into.
func WithDrawer(d upsell.Drawer) Option {
	return func(c *config) error {
		c.drawer = d
		return nil
	}
}

// WithResetDelay sets how long the add-to-cart control shows its confirmation
// label before returning to idle.
func WithResetDelay(d time.Duration) Option {
	return func(c *config) error {
		c.resetDelay = d
		return nil
	}
}

// WithCollection selects the collection and section the filter engine works
// against.
func WithCollection(handle, sectionID string) Option {
	return func(c *config) error {
		c.collectionHandle = handle
		c.collectionSectionID = sectionID
		return nil
	}
}

// WithSettleDelay sets the reconciler's debounce window.
func WithSettleDelay(d time.Duration) Option {
	return func(c *config) error {
		c.settleDelay = d
		return nil
	}
}

// WithMinInterval sets the minimum spacing between reconciliation cycles.
func WithMinInterval(d time.Duration) Option {
	return func(c *config) error {
		c.minInterval = d
		return nil
	}
}
