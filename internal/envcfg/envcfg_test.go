package envcfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ACCSEL_STOREFRONT_URL", "https://shop.example.com")
	t.Setenv("ACCSEL_WEBHOOK_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "all", cfg.CollectionHandle)
	require.Equal(t, "main-collection", cfg.CollectionSectionID)
	require.Equal(t, 100*time.Millisecond, cfg.SettleDelay)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.RedisAddr)
	require.Zero(t, cfg.RedisDB)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("ACCSEL_STOREFRONT_URL", "")
	t.Setenv("ACCSEL_WEBHOOK_SECRET", "s3cret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("ACCSEL_STOREFRONT_URL", "https://shop.example.com")
	t.Setenv("ACCSEL_WEBHOOK_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_ListsAndOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCSEL_LISTEN_ADDR", ":9999")
	t.Setenv("ACCSEL_WEBHOOK_ALLOWED_CIDRS", "10.0.0.0/8, 192.168.0.0/16 ,")
	t.Setenv("ACCSEL_TRUSTED_PROXIES", "172.16.0.0/12")
	t.Setenv("ACCSEL_REDIS_ADDR", "localhost:6379")
	t.Setenv("ACCSEL_REDIS_DB", "3")
	t.Setenv("ACCSEL_SETTLE_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.ListenAddr)
	require.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.WebhookAllowedCIDRs)
	require.Equal(t, []string{"172.16.0.0/12"}, cfg.TrustedProxies)
	require.Equal(t, "localhost:6379", cfg.RedisAddr)
	require.Equal(t, 3, cfg.RedisDB)
	require.Equal(t, 250*time.Millisecond, cfg.SettleDelay)
}

func TestLoad_BadValues(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCSEL_REDIS_DB", "three")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("ACCSEL_REDIS_DB", "0")
	t.Setenv("ACCSEL_SETTLE_DELAY", "fast")
	_, err = Load()
	require.Error(t, err)
}
