package filter

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// fakeFetcher renders a fragment describing the query it received.
type fakeFetcher struct {
	mu      sync.Mutex
	queries []url.Values
	err     error
	loading func() // observed mid-fetch when set
}

func (f *fakeFetcher) CollectionSection(ctx context.Context, handle, sectionID string, query url.Values) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.loading != nil {
		f.loading()
	}
	if f.err != nil {
		return "", f.err
	}
	return "<section>" + query.Encode() + "</section>", nil
}

func (f *fakeFetcher) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestApplyRemoveClear(t *testing.T) {
	sf := &fakeFetcher{}
	e := New(sf, "sale", "main-collection", WithLogger(zaptest.NewLogger(t)), WithSettleDelay(0))
	ctx := t.Context()

	e.Apply(ctx, "filter.v.availability", "1")
	if got := e.Result(); got != "<section>filter.v.availability=1</section>" {
		t.Fatalf("result=%q", got)
	}
	if got := e.URL(); got != "/collections/sale?filter.v.availability=1" {
		t.Fatalf("URL=%q", got)
	}

	e.Apply(ctx, "filter.v.option.color", "red")
	if got := e.URL(); got != "/collections/sale?filter.v.availability=1&filter.v.option.color=red" {
		t.Fatalf("URL=%q", got)
	}

	e.Remove(ctx, "filter.v.availability")
	if got := e.URL(); got != "/collections/sale?filter.v.option.color=red" {
		t.Fatalf("URL=%q", got)
	}

	e.Clear(ctx)
	if got := e.URL(); got != "/collections/sale" {
		t.Fatalf("URL=%q", got)
	}
	if got := e.Result(); got != "<section></section>" {
		t.Fatalf("result after clear=%q", got)
	}
}

func TestHistoryRecordsAppliedStates(t *testing.T) {
	sf := &fakeFetcher{}
	e := New(sf, "sale", "main-collection", WithSettleDelay(0))
	ctx := t.Context()

	e.Apply(ctx, "filter.v.availability", "1")
	e.Remove(ctx, "filter.v.availability")

	want := []string{
		"/collections/sale?filter.v.availability=1",
		"/collections/sale",
	}
	got := e.History()
	if len(got) != len(want) {
		t.Fatalf("history=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("history=%v, want %v", got, want)
		}
	}
}

func TestFetchFailureKeepsPreviousResult(t *testing.T) {
	sf := &fakeFetcher{}
	e := New(sf, "sale", "main-collection", WithLogger(zaptest.NewLogger(t)), WithSettleDelay(0))
	ctx := t.Context()

	e.Apply(ctx, "filter.v.availability", "1")
	before := e.Result()

	sf.err = errors.New("storefront: /collections/sale returned status 500")
	e.Apply(ctx, "filter.v.option.color", "red")

	if got := e.Result(); got != before {
		t.Fatalf("result=%q, want previous %q kept on failure", got, before)
	}
	if len(e.History()) != 1 {
		t.Fatalf("failed refresh must not extend history, got %v", e.History())
	}
	if e.Loading() {
		t.Fatal("loading flag must clear after a failed fetch")
	}
}

func TestLoadingFlagDuringFetch(t *testing.T) {
	sf := &fakeFetcher{}
	e := New(sf, "sale", "main-collection", WithSettleDelay(0))

	var midFetch bool
	sf.loading = func() { midFetch = e.Loading() }

	e.Apply(t.Context(), "filter.v.availability", "1")

	if !midFetch {
		t.Fatal("expected loading=true while the fetch is in flight")
	}
	if e.Loading() {
		t.Fatal("expected loading=false after the fetch")
	}
}

func TestBurstCoalescesIntoOneFetch(t *testing.T) {
	sf := &fakeFetcher{}
	e := New(sf, "sale", "main-collection", WithSettleDelay(30*time.Millisecond))
	defer e.Close()
	ctx := t.Context()

	// Three facet flips inside the settle window.
	e.Apply(ctx, "filter.v.availability", "1")
	e.Apply(ctx, "filter.v.option.color", "red")
	e.Remove(ctx, "filter.v.availability")

	waitFor(t, func() bool { return sf.fetches() == 1 })

	// Give a stray extra fetch time to appear, then confirm there was none.
	time.Sleep(100 * time.Millisecond)
	if n := sf.fetches(); n != 1 {
		t.Fatalf("section fetched %d times for one burst, want 1", n)
	}
	if got := e.Result(); got != "<section>filter.v.option.color=red</section>" {
		t.Fatalf("result=%q, want the burst's final facet state rendered", got)
	}
	if got := e.History(); len(got) != 1 || got[0] != "/collections/sale?filter.v.option.color=red" {
		t.Fatalf("history=%v, want one coalesced state", got)
	}
}

func TestCloseDropsPendingFetch(t *testing.T) {
	sf := &fakeFetcher{}
	e := New(sf, "sale", "main-collection", WithSettleDelay(20*time.Millisecond))

	e.Apply(t.Context(), "filter.v.availability", "1")
	e.Close()

	time.Sleep(100 * time.Millisecond)
	if n := sf.fetches(); n != 0 {
		t.Fatalf("section fetched %d times after Close, want 0", n)
	}
}
