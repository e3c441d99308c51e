// Package storefront implements the HTTP client for the Shopify storefront
// AJAX endpoints the upsell engine depends on: the cart (`/cart.js`), the
// product recommendations API, add-to-cart (`/cart/add.js`), and the section
// rendering API used by the collection filter.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HelgJet/cart-upsell-accsel/call"
	"github.com/HelgJet/cart-upsell-accsel/contextx"
)

// Endpoint names used for policy resolution, metrics labels, and spans.
const (
	EndpointCart            = "cart.get"
	EndpointRecommendations = "recommendations.related"
	EndpointCartAdd         = "cart.add"
	EndpointSection         = "collection.section"
)

// DefaultRecommendationLimit is how many related products are requested per
// seed; the resolver needs a few spares because cart-resident products are
// filtered out.
const DefaultRecommendationLimit = 4

// Client talks to one shop's storefront. Every request runs through the
// configured middleware chain (recovery, logging, metrics, rate limiting,
// breaker, tracing).
type Client struct {
	base    *url.URL
	recPath string
	hc      *http.Client
	mw      []call.Middleware
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithMiddleware appends call middlewares, executed in the order given.
func WithMiddleware(mw ...call.Middleware) Option {
	return func(c *Client) { c.mw = append(c.mw, mw...) }
}

// WithRecommendationsPath overrides the recommendations endpoint path. Themes
// expose it under a locale-dependent root, so the default
// "/recommendations/products.json" is not always right.
func WithRecommendationsPath(p string) Option {
	return func(c *Client) { c.recPath = p }
}

// NewClient creates a Client for the shop at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storefront: invalid base URL %q: %w", baseURL, err)
	}
	c := &Client{
		base:    u,
		recPath: "/recommendations/products.json",
		hc:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// call runs fn through the middleware chain with the endpoint name attached
// to the context.
func (c *Client) call(ctx context.Context, endpoint string, fn call.Func) error {
	ctx = contextx.WithEndpoint(ctx, endpoint)
	return call.Wrap(fn, c.mw...)(ctx)
}

// Cart fetches the current cart via GET /cart.js.
func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	var cart Cart
	err := c.call(ctx, EndpointCart, func(ctx context.Context) error {
		return c.getJSON(ctx, c.url("/cart.js", nil), &cart)
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Recommendations fetches up to limit products related to the seed product.
// Candidates are returned in the API's order; the resolver relies on that
// order when picking the first eligible product.
func (c *Client) Recommendations(ctx context.Context, seedProductID int64, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	q := url.Values{}
	q.Set("product_id", strconv.FormatInt(seedProductID, 10))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("intent", "related")

	var out struct {
		Products []Product `json:"products"`
	}
	err := c.call(ctx, EndpointRecommendations, func(ctx context.Context) error {
		return c.getJSON(ctx, c.url(c.recPath, q), &out)
	})
	if err != nil {
		return nil, err
	}
	return out.Products, nil
}

// AddToCart posts the given items (and optional section requests) to
// POST /cart/add.js.
func (c *Client) AddToCart(ctx context.Context, req AddRequest) (*AddResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("storefront: encoding add request: %w", err)
	}

	var out AddResponse
	err = c.call(ctx, EndpointCartAdd, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/cart/add.js", nil), bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		return c.doJSON(httpReq, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CollectionSection fetches a single rendered theme section for a collection
// via the section rendering API and returns the HTML fragment. query carries
// the active filter parameters.
func (c *Client) CollectionSection(ctx context.Context, handle, sectionID string, query url.Values) (string, error) {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("section_id", sectionID)

	var html string
	err := c.call(ctx, EndpointSection, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/collections/"+handle, q), nil)
		if err != nil {
			return err
		}
		resp, err := c.hc.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("storefront: %s returned status %d", httpReq.URL.Path, resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		html = string(b)
		return nil
	})
	if err != nil {
		return "", err
	}
	return html, nil
}

// url joins path (and optional query) onto the shop base URL.
func (c *Client) url(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// getJSON issues a GET and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.doJSON(req, out)
}

// doJSON executes req and decodes the JSON response into out. A non-2xx
// status is an error; the body is drained either way so connections can be
// reused.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storefront: %s returned status %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("storefront: decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}
