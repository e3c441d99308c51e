package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap/zaptest"
)

func TestNew_MountsRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "accsel_test_total",
		Help: "Test counter.",
	}).Inc()

	webhookHit := false
	s := New(
		WithLogger(zaptest.NewLogger(t)),
		WithRegistry(reg),
		WithWebhookHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			webhookHit = true
		})),
		WithHealthHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
		})),
	)

	tests := []struct {
		path string
		want int
	}{
		{"/webhooks/cart", 200},
		{"/healthz", 200},
		{"/metrics", 200},
		{"/nope", 404},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", tt.path, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, r)
		if w.Code != tt.want {
			t.Fatalf("GET %s: status=%d, want %d", tt.path, w.Code, tt.want)
		}
	}
	if !webhookHit {
		t.Fatal("webhook handler not reached")
	}
}

func TestNew_UnmountedRoutesAre404(t *testing.T) {
	s := New()
	for _, path := range []string{"/webhooks/cart", "/healthz", "/metrics"} {
		r := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, r)
		if w.Code != 404 {
			t.Fatalf("GET %s: status=%d, want 404", path, w.Code)
		}
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := New(
		WithAddr("127.0.0.1:0"),
		WithLogger(zaptest.NewLogger(t)),
		WithShutdownTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Let the listener come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_BadAddr(t *testing.T) {
	s := New(WithAddr("127.0.0.1:-1"))
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}
