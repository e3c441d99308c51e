package breaker

import "sync"

// Group lazily creates one Breaker per storefront endpoint so that a failing
// recommendations endpoint does not shed cart fetches.
type Group struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates a Group whose per-endpoint breakers share cfg.
func NewGroup(cfg Config) *Group {
	return &Group{
		cfg:      cfg,
		breakers: make(map[string]*Breaker),
	}
}

// For returns (or lazily creates) the breaker for the given endpoint.
func (g *Group) For(endpoint string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[endpoint]; ok {
		return b
	}
	b := New(g.cfg)
	g.breakers[endpoint] = b
	return b
}
