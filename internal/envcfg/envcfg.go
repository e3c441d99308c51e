// Package envcfg loads the daemon's configuration from the environment, with
// an optional .env file for local development.
package envcfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the daemon's environment-derived configuration.
type Config struct {
	// ListenAddr is the HTTP listen address for the webhook and ops routes.
	ListenAddr string

	// StorefrontURL is the base URL of the storefront to talk to.
	StorefrontURL string

	// WebhookSecret signs incoming cart webhooks.
	WebhookSecret string

	// WebhookAllowedCIDRs restricts webhook sources when non-empty.
	WebhookAllowedCIDRs []string

	// TrustedProxies are reverse proxies whose forwarding headers are honored.
	TrustedProxies []string

	// RedisAddr enables the L2 cache tier when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CollectionHandle and CollectionSectionID drive the filter engine.
	CollectionHandle    string
	CollectionSectionID string

	// SettleDelay is the reconciler's debounce window.
	SettleDelay time.Duration

	// LogLevel selects the zap level: debug, info, warn, or error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:          getEnv("ACCSEL_LISTEN_ADDR", ":8080"),
		StorefrontURL:       os.Getenv("ACCSEL_STOREFRONT_URL"),
		WebhookSecret:       os.Getenv("ACCSEL_WEBHOOK_SECRET"),
		WebhookAllowedCIDRs: splitList(os.Getenv("ACCSEL_WEBHOOK_ALLOWED_CIDRS")),
		TrustedProxies:      splitList(os.Getenv("ACCSEL_TRUSTED_PROXIES")),
		RedisAddr:           os.Getenv("ACCSEL_REDIS_ADDR"),
		RedisPassword:       os.Getenv("ACCSEL_REDIS_PASSWORD"),
		CollectionHandle:    getEnv("ACCSEL_COLLECTION_HANDLE", "all"),
		CollectionSectionID: getEnv("ACCSEL_COLLECTION_SECTION_ID", "main-collection"),
		LogLevel:            getEnv("ACCSEL_LOG_LEVEL", "info"),
	}

	db, err := getEnvInt("ACCSEL_REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cfg.RedisDB = db

	settle, err := getEnvDuration("ACCSEL_SETTLE_DELAY", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.SettleDelay = settle

	if cfg.StorefrontURL == "" {
		return nil, fmt.Errorf("envcfg: ACCSEL_STOREFRONT_URL is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("envcfg: ACCSEL_WEBHOOK_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("envcfg: %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("envcfg: %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
