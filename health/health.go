// Package health provides a minimal HTTP health endpoint suitable for
// readiness probes and demos. Checks are named functions; the handler runs
// them all and reports per-check status as JSON.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Response is the JSON body of a health probe.
type Response struct {
	Status         string            `json:"status"`
	Checks         map[string]string `json:"checks,omitempty"`
	ServerTimeUnix int64             `json:"server_time_unix"`
}

// Handler runs registered checks and serves the aggregate result.
type Handler struct {
	checks  map[string]Check
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout bounds each probe; the default is two seconds.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithLogger sets the handler's logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// NewHandler creates a Handler with no checks registered. A check-less
// handler always reports ok.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		checks:  map[string]Check{},
		timeout: 2 * time.Second,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register adds a named check. Registering the same name twice replaces the
// earlier check.
func (h *Handler) Register(name string, c Check) {
	h.checks[name] = c
}

// ServeHTTP runs every check and answers 200 when all pass, 503 otherwise.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := Response{
		Status:         "ok",
		ServerTimeUnix: time.Now().Unix(),
	}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}

	code := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
