package breaker

import (
	"errors"
	"testing"
	"time"
)

func newTestBreaker(cfg Config) (*Breaker, *time.Time) {
	b := New(cfg)
	now := time.Now()
	b.nowFunc = func() time.Time { return now }
	return b, &now
}

func TestClosedToOpen(t *testing.T) {
	b, _ := newTestBreaker(Config{
		FailureThreshold: 3,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   1,
	})

	if s := b.State(); s != Closed {
		t.Fatalf("expected Closed, got %d", s)
	}

	b.OnFailure()
	b.OnFailure()
	if s := b.State(); s != Closed {
		t.Fatalf("expected Closed after 2 failures, got %d", s)
	}

	b.OnFailure() // 3rd failure => trip
	if s := b.State(); s != Open {
		t.Fatalf("expected Open after 3 failures, got %d", s)
	}
}

func TestDo_ShedsWhenOpen(t *testing.T) {
	b, _ := newTestBreaker(Config{
		FailureThreshold: 1,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   1,
	})

	failing := errors.New("boom")
	if err := b.Do(func() error { return failing }); !errors.Is(err, failing) {
		t.Fatalf("expected the call error, got %v", err)
	}

	// Tripped: the next call must be shed without invoking fn.
	invoked := false
	err := b.Do(func() error { invoked = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if invoked {
		t.Fatal("fn must not run while the circuit is open")
	}
}

func TestOpenToHalfOpenAfterTimeout(t *testing.T) {
	b, now := newTestBreaker(Config{
		FailureThreshold: 1,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   2,
	})

	b.OnFailure() // trip to Open
	if b.Allow() {
		t.Fatal("expected blocked in Open")
	}

	// Advance time past OpenTimeout
	*now = now.Add(6 * time.Second)

	if s := b.State(); s != HalfOpen {
		t.Fatalf("expected HalfOpen after timeout, got %d", s)
	}
	if !b.Allow() {
		t.Fatal("expected Allow()=true in HalfOpen")
	}
}

func TestHalfOpenSuccessToClosed(t *testing.T) {
	b, now := newTestBreaker(Config{
		FailureThreshold: 1,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   2,
	})

	b.OnFailure()
	*now = now.Add(6 * time.Second)

	// Now in HalfOpen
	if s := b.State(); s != HalfOpen {
		t.Fatalf("expected HalfOpen, got %d", s)
	}

	b.OnSuccess()
	if s := b.State(); s != HalfOpen {
		t.Fatalf("expected still HalfOpen after 1 success, got %d", s)
	}

	b.OnSuccess() // 2nd success => close
	if s := b.State(); s != Closed {
		t.Fatalf("expected Closed after 2 successes, got %d", s)
	}
}

func TestHalfOpenFailureToOpen(t *testing.T) {
	b, now := newTestBreaker(Config{
		FailureThreshold: 1,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   3,
	})

	b.OnFailure()
	*now = now.Add(6 * time.Second)

	if s := b.State(); s != HalfOpen {
		t.Fatalf("expected HalfOpen, got %d", s)
	}

	b.OnFailure() // any failure in HalfOpen => Open
	if s := b.State(); s != Open {
		t.Fatalf("expected Open after HalfOpen failure, got %d", s)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(Config{
		FailureThreshold: 3,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   1,
	})

	b.OnFailure()
	b.OnFailure()
	b.OnSuccess() // resets count
	b.OnFailure()
	b.OnFailure()
	// Only 2 consecutive failures after reset, should still be Closed
	if s := b.State(); s != Closed {
		t.Fatalf("expected Closed, got %d", s)
	}
}

func TestGroup_IsolatesEndpoints(t *testing.T) {
	g := NewGroup(Config{
		FailureThreshold: 1,
		OpenTimeout:      5 * time.Second,
		HalfOpenProbes:   1,
	})

	g.For("recommendations.related").OnFailure() // trips only this endpoint

	if g.For("recommendations.related").Allow() {
		t.Fatal("expected recommendations breaker to be open")
	}
	if !g.For("cart.get").Allow() {
		t.Fatal("expected cart breaker to stay closed")
	}

	// Same endpoint name resolves to the same breaker.
	if g.For("cart.get") != g.For("cart.get") {
		t.Fatal("expected a stable breaker per endpoint")
	}
}
