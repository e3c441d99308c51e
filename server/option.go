package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// config holds the internal configuration assembled via functional options.
type config struct {
	addr            string
	log             *zap.Logger
	registry        *prometheus.Registry
	webhook         http.Handler
	health          http.Handler
	shutdownTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
}

// Option configures a Server.
type Option func(*config)

// WithAddr sets the listen address; the default is ":8080".
func WithAddr(addr string) Option {
	return func(c *config) { c.addr = addr }
}

// WithLogger sets the server's logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithRegistry mounts Prometheus metrics from reg at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithWebhookHandler mounts h at /webhooks/cart.
func WithWebhookHandler(h http.Handler) Option {
	return func(c *config) { c.webhook = h }
}

// WithHealthHandler mounts h at /healthz.
func WithHealthHandler(h http.Handler) Option {
	return func(c *config) { c.health = h }
}

// WithShutdownTimeout bounds graceful shutdown; the default is ten seconds.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) { c.shutdownTimeout = d }
}
