package security

import (
	"net/http/httptest"
	"testing"
)

func TestNewIPBlocker_InvalidCIDR(t *testing.T) {
	_, err := NewIPBlocker(Config{CIDRs: []string{"not-a-cidr"}})
	if err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}

func TestNewIPBlocker_BareAddr(t *testing.T) {
	b, err := NewIPBlocker(Config{Mode: AllowList, CIDRs: []string{"203.0.113.7"}})
	if err != nil {
		t.Fatalf("NewIPBlocker: %v", err)
	}

	r := httptest.NewRequest("POST", "/webhooks/cart", nil)
	r.RemoteAddr = "203.0.113.7:4455"
	if !b.Evaluate(r) {
		t.Fatal("bare address must act as a single-host prefix")
	}

	r.RemoteAddr = "203.0.113.8:4455"
	if b.Evaluate(r) {
		t.Fatal("neighboring address must not match a single-host prefix")
	}
}

func TestEvaluate_AllowList(t *testing.T) {
	b, err := NewIPBlocker(Config{
		Mode:  AllowList,
		CIDRs: []string{"10.0.0.0/8", "192.168.1.0/24"},
	})
	if err != nil {
		t.Fatalf("NewIPBlocker: %v", err)
	}

	tests := []struct {
		remote string
		want   bool
	}{
		{"10.1.2.3:1000", true},
		{"192.168.1.44:1000", true},
		{"192.168.2.44:1000", false},
		{"8.8.8.8:1000", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/webhooks/cart", nil)
		r.RemoteAddr = tt.remote
		if got := b.Evaluate(r); got != tt.want {
			t.Fatalf("Evaluate(%s)=%v, want %v", tt.remote, got, tt.want)
		}
	}
}

func TestEvaluate_DenyList(t *testing.T) {
	b, err := NewIPBlocker(Config{
		Mode:  DenyList,
		CIDRs: []string{"198.51.100.0/24"},
	})
	if err != nil {
		t.Fatalf("NewIPBlocker: %v", err)
	}

	r := httptest.NewRequest("POST", "/webhooks/cart", nil)
	r.RemoteAddr = "198.51.100.9:1000"
	if b.Evaluate(r) {
		t.Fatal("denied range must not be allowed")
	}

	r.RemoteAddr = "8.8.8.8:1000"
	if !b.Evaluate(r) {
		t.Fatal("addresses outside the deny range must be allowed")
	}
}

func TestEvaluate_UnparseableRemoteDenied(t *testing.T) {
	b, err := NewIPBlocker(Config{Mode: DenyList})
	if err != nil {
		t.Fatalf("NewIPBlocker: %v", err)
	}

	r := httptest.NewRequest("POST", "/webhooks/cart", nil)
	r.RemoteAddr = "garbage"
	if b.Evaluate(r) {
		t.Fatal("unresolvable client address must be denied")
	}
}

func TestEvaluate_TrustedProxyHeaders(t *testing.T) {
	b, err := NewIPBlocker(Config{
		Mode:           AllowList,
		CIDRs:          []string{"203.0.113.0/24"},
		TrustedProxies: []string{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatalf("NewIPBlocker: %v", err)
	}

	// Proxy is trusted, so the forwarded client IP decides.
	r := httptest.NewRequest("POST", "/webhooks/cart", nil)
	r.RemoteAddr = "10.0.0.1:9000"
	r.Header.Set("X-Forwarded-For", "203.0.113.50, 10.0.0.1")
	if !b.Evaluate(r) {
		t.Fatal("forwarded client in the allow range must be allowed")
	}

	// Same headers from an untrusted peer are ignored.
	r.RemoteAddr = "8.8.8.8:9000"
	if b.Evaluate(r) {
		t.Fatal("headers from an untrusted peer must be ignored")
	}
}

func TestEvaluate_HeaderPriorityOrder(t *testing.T) {
	b, err := NewIPBlocker(Config{
		Mode:           AllowList,
		CIDRs:          []string{"203.0.113.0/24"},
		TrustedProxies: []string{"10.0.0.0/8"},
		HeaderPriority: []string{"X-Real-Ip", "X-Forwarded-For"},
	})
	if err != nil {
		t.Fatalf("NewIPBlocker: %v", err)
	}

	r := httptest.NewRequest("POST", "/webhooks/cart", nil)
	r.RemoteAddr = "10.0.0.1:9000"
	r.Header.Set("X-Real-Ip", "8.8.8.8")
	r.Header.Set("X-Forwarded-For", "203.0.113.50")

	// X-Real-Ip wins and 8.8.8.8 is outside the allow range.
	if b.Evaluate(r) {
		t.Fatal("higher-priority header must decide the client IP")
	}
}
