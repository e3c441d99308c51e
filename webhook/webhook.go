// Package webhook receives storefront cart webhooks and turns them into bus
// events. Each delivery is verified with an HMAC-SHA256 signature and,
// optionally, a source IP check before it reaches the rest of the system.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/HelgJet/cart-upsell-accsel/pubsub"
	"github.com/HelgJet/cart-upsell-accsel/security"
	"go.uber.org/zap"
)

// SignatureHeader carries the base64-encoded HMAC-SHA256 of the raw body.
const SignatureHeader = "X-Storefront-Hmac-Sha256"

// maxBodyBytes caps webhook payload size.
const maxBodyBytes = 1 << 20

// cartPayload is the slice of the cart webhook body the daemon cares about.
type cartPayload struct {
	Token     string `json:"token"`
	ItemCount int    `json:"item_count"`
}

// Handler verifies and dispatches cart webhooks.
type Handler struct {
	secret  []byte
	bus     *pubsub.Bus
	blocker *security.IPBlocker
	log     *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithIPBlocker guards deliveries with a source address check. Requests the
// blocker rejects are answered with 403 before signature verification.
func WithIPBlocker(b *security.IPBlocker) Option {
	return func(h *Handler) { h.blocker = b }
}

// WithLogger sets the handler's logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Handler) { h.log = log }
}

// NewHandler creates a Handler that verifies deliveries against secret and
// publishes cart updates to bus.
func NewHandler(secret string, bus *pubsub.Bus, opts ...Option) *Handler {
	h := &Handler{
		secret: []byte(secret),
		bus:    bus,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// ServeHTTP handles one webhook delivery.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.blocker != nil && !h.blocker.Evaluate(r) {
		h.log.Warn("webhook rejected by IP policy", zap.String("remote", r.RemoteAddr))
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	if !h.verify(body, r.Header.Get(SignatureHeader)) {
		h.log.Warn("webhook signature mismatch", zap.String("remote", r.RemoteAddr))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var payload cartPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	h.log.Debug("cart webhook accepted",
		zap.String("cart_token", payload.Token),
		zap.Int("item_count", payload.ItemCount),
	)
	h.bus.Publish(pubsub.Event{
		Kind:   pubsub.KindCartUpdate,
		Update: &pubsub.CartUpdate{ItemCount: payload.ItemCount},
	})

	w.WriteHeader(http.StatusOK)
}

// verify checks the base64 HMAC-SHA256 signature of body.
func (h *Handler) verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// Sign computes the signature for body with secret. Intended for tests and
// local tooling that replays deliveries.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
