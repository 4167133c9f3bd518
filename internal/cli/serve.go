package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/storefront-orders/internal/api-gateway/infra/httpx"
	"github.com/jcmexdev/storefront-orders/internal/api-gateway/infra/httpx/middlewares"
	"github.com/jcmexdev/storefront-orders/internal/order-service/app"
	paymentservice "github.com/jcmexdev/storefront-orders/internal/payment-service/app"
	"github.com/jcmexdev/storefront-orders/internal/pkg/cache"
	"github.com/jcmexdev/storefront-orders/internal/pkg/config"
	"github.com/jcmexdev/storefront-orders/internal/pkg/health"
	"github.com/jcmexdev/storefront-orders/internal/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the order API with its webhook workers and pending order sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			telemetry.InitLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("tracer shutdown failed", "error", err)
		}
	}()

	st, err := openStores(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	checks := health.NewHandler(version)
	checks.Register(health.NewPingChecker("sqlite", st.orders.Ping))

	gateway := paymentservice.NewClient(paymentservice.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.StripeCurrency,
	}, nil)

	opts := []app.ProcessorOption{app.WithWorkers(cfg.WebhookWorkers)}
	if cfg.RedisAddr != "" {
		dedup := cache.NewRedisCache(cfg.RedisAddr, "storefront")
		opts = append(opts, app.WithDedup(dedup, cfg.WebhookDedupTTL))
		checks.Register(health.NewOptionalChecker("redis", dedup.Ping))
	}

	checkout := app.NewCheckoutService(st.orders, st.orders, st.orders, gateway, st.sagaLog)
	processor := app.NewWebhookProcessor(gateway, st.orders, st.orders, opts...)
	queries := app.NewQueryService(st.orders, st.orders, st.orders)
	sweeper := app.NewSweeper(st.orders, cfg.PendingOrderTTL)
	checks.Register(health.NewPingChecker("webhook_workers", processor.Ready))

	router := httpx.NewRouter(
		httpx.NewHandler(checkout, processor, queries),
		middlewares.NewAuthenticator(cfg.JWTSecret, cfg.SellerEmail),
		checks,
		cfg.AllowedOrigins(),
	)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           otelhttp.NewHandler(router, "storefront-api"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return processor.Run(gctx) })
	g.Go(func() error { return sweeper.Run(gctx, cfg.SweepInterval) })
	g.Go(func() error {
		slog.Info("storefront api listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("shutting down storefront api")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
