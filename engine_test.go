package accsel_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	accsel "github.com/HelgJet/cart-upsell-accsel"
	"github.com/HelgJet/cart-upsell-accsel/upsell"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
)

// newStorefrontServer serves a one-item cart and a single recommendation.
func newStorefrontServer(t *testing.T, cartCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/cart.js", func(w http.ResponseWriter, r *http.Request) {
		cartCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token":      "tok",
			"item_count": 1,
			"items": []map[string]any{
				{"product_id": 1, "variant_id": 11, "handle": "seed", "quantity": 1},
			},
		})
	})
	mux.HandleFunc("/recommendations/products.json", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"products": []map[string]any{
				{
					"id": 2, "title": "Offer", "handle": "offer",
					"variants": []map[string]any{{"id": 22, "price": 1500, "available": true}},
				},
			},
		})
	})
	mux.HandleFunc("/collections/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<section>ok</section>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_WiresWidgetAndCache(t *testing.T) {
	var cartCalls atomic.Int64
	srv := newStorefrontServer(t, &cartCalls)

	eng, err := accsel.New(srv.URL,
		accsel.WithLogger(zaptest.NewLogger(t)),
		accsel.WithCacheL1(1000),
		accsel.WithRecovery(),
		accsel.WithRequestID(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	eng.Widget().Init(t.Context())
	if got := eng.Widget().State(); got != upsell.StateVisible {
		t.Fatalf("state=%v, want visible", got)
	}
	render, ok := eng.Widget().Render()
	if !ok || render.Handle != "offer" {
		t.Fatalf("render=%+v ok=%v", render, ok)
	}

	// A second Init inside the cart TTL must be served from cache.
	eng.Widget().Init(t.Context())
	if n := cartCalls.Load(); n != 1 {
		t.Fatalf("cart fetched %d times, want 1", n)
	}
}

func TestNew_DefaultOptions(t *testing.T) {
	var cartCalls atomic.Int64
	srv := newStorefrontServer(t, &cartCalls)

	eng, err := accsel.New(srv.URL, accsel.DefaultOptions()...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	eng.Widget().Init(t.Context())
	if got := eng.Widget().State(); got != upsell.StateVisible {
		t.Fatalf("state=%v, want visible", got)
	}
}

func TestNew_MetricsRegistered(t *testing.T) {
	var cartCalls atomic.Int64
	srv := newStorefrontServer(t, &cartCalls)

	reg := prometheus.NewRegistry()
	eng, err := accsel.New(srv.URL, accsel.WithMetricsRegistry(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	eng.Widget().Init(t.Context())

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "accsel_storefront_calls") {
			found = true
		}
	}
	if !found {
		t.Fatal("storefront call counter not registered")
	}
}

func TestNew_FilterUsesCollection(t *testing.T) {
	var cartCalls atomic.Int64
	srv := newStorefrontServer(t, &cartCalls)

	eng, err := accsel.New(srv.URL, accsel.WithCollection("sale", "main-collection"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	eng.Filter().Apply(t.Context(), "filter.v.availability", "1")
	if got := eng.Filter().URL(); got != "/collections/sale?filter.v.availability=1" {
		t.Fatalf("URL=%q", got)
	}

	// Facet changes settle before the section is fetched.
	deadline := time.Now().Add(2 * time.Second)
	for eng.Filter().Result() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := eng.Filter().Result(); got != "<section>ok</section>" {
		t.Fatalf("result=%q", got)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := accsel.New("://nope"); err == nil {
		t.Fatal("expected error for malformed base URL")
	}
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	var cartCalls atomic.Int64
	srv := newStorefrontServer(t, &cartCalls)

	eng, err := accsel.New(srv.URL, accsel.WithSettleDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
