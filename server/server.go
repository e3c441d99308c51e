// Package server hosts the daemon's HTTP surface: the cart webhook intake,
// the health probe, and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is a minimal wrapper around an http.Server with the daemon's routes
// mounted.
type Server struct {
	httpServer      *http.Server
	log             *zap.Logger
	shutdownTimeout time.Duration
}

// New creates a Server by applying functional options and wiring the
// resulting handlers into an http.ServeMux.
func New(opts ...Option) *Server {
	cfg := config{
		addr:            ":8080",
		log:             zap.NewNop(),
		shutdownTimeout: 10 * time.Second,
		readTimeout:     10 * time.Second,
		writeTimeout:    10 * time.Second,
	}
	for _, o := range opts {
		o(&cfg)
	}

	mux := http.NewServeMux()
	if cfg.webhook != nil {
		mux.Handle("/webhooks/cart", cfg.webhook)
	}
	if cfg.health != nil {
		mux.Handle("/healthz", cfg.health)
	}
	if cfg.registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{}))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.addr,
			Handler:      mux,
			ReadTimeout:  cfg.readTimeout,
			WriteTimeout: cfg.writeTimeout,
		},
		log:             cfg.log,
		shutdownTimeout: cfg.shutdownTimeout,
	}
}

// Handler returns the server's root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.log.Info("http server listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	s.log.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
