// Command accseld runs the accessory selector daemon: it hosts the cart
// webhook intake, drives widget reconciliation, and serves health and
// metrics endpoints.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	accsel "github.com/HelgJet/cart-upsell-accsel"
	"github.com/HelgJet/cart-upsell-accsel/health"
	"github.com/HelgJet/cart-upsell-accsel/internal/envcfg"
	"github.com/HelgJet/cart-upsell-accsel/security"
	"github.com/HelgJet/cart-upsell-accsel/server"
	"github.com/HelgJet/cart-upsell-accsel/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var enableTracing bool

func main() {
	cmd := &cobra.Command{
		Use:          "accseld",
		Short:        "Cart upsell accessory selector daemon",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&enableTracing, "trace", false, "emit spans to stdout")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := envcfg.Load()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()

	opts := []accsel.Option{
		accsel.WithLogger(log),
		accsel.WithRecovery(),
		accsel.WithRequestID(),
		accsel.WithLogging(),
		accsel.WithMetricsRegistry(reg),
		accsel.WithCacheL1(10_000),
		accsel.WithCollection(cfg.CollectionHandle, cfg.CollectionSectionID),
		accsel.WithSettleDelay(cfg.SettleDelay),
	}
	if cfg.RedisAddr != "" {
		opts = append(opts, accsel.WithCacheL2(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	}
	if enableTracing {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return err
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
		defer func() { _ = tp.Shutdown(context.Background()) }()
		opts = append(opts, accsel.WithTracing(tp))
	}

	eng, err := accsel.New(cfg.StorefrontURL, opts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	webhookOpts := []webhook.Option{webhook.WithLogger(log)}
	if len(cfg.WebhookAllowedCIDRs) > 0 {
		blocker, err := security.NewIPBlocker(security.Config{
			Mode:           security.AllowList,
			CIDRs:          cfg.WebhookAllowedCIDRs,
			TrustedProxies: cfg.TrustedProxies,
		})
		if err != nil {
			return err
		}
		webhookOpts = append(webhookOpts, webhook.WithIPBlocker(blocker))
	}
	hook := webhook.NewHandler(cfg.WebhookSecret, eng.Bus(), webhookOpts...)

	probe := health.NewHandler(health.WithLogger(log))
	if l2 := eng.Redis(); l2 != nil {
		probe.Register("redis", l2.Ping)
	}

	srv := server.New(
		server.WithAddr(cfg.ListenAddr),
		server.WithLogger(log),
		server.WithRegistry(reg),
		server.WithWebhookHandler(hook),
		server.WithHealthHandler(probe),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- eng.Run(ctx) }()
	go func() { errCh <- srv.Run(ctx) }()

	log.Info("accseld started",
		zap.String("addr", cfg.ListenAddr),
		zap.String("storefront", cfg.StorefrontURL),
	)

	// First error (or clean shutdown) wins; cancel the other component and
	// wait for it.
	err = <-errCh
	cancel()
	if second := <-errCh; err == nil {
		err = second
	}
	return err
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
