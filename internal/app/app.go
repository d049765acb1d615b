// Package app wires configuration, storage, domain services, and the HTTP
// server into a running storefront API.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vitea-labs/storefront-api/internal/domain/cart"
	"github.com/vitea-labs/storefront-api/internal/domain/checkout"
	"github.com/vitea-labs/storefront-api/internal/domain/newsletter"
	"github.com/vitea-labs/storefront-api/internal/domain/pricing"
	"github.com/vitea-labs/storefront-api/internal/domain/tracking"
	"github.com/vitea-labs/storefront-api/internal/handler"
	"github.com/vitea-labs/storefront-api/internal/rates"
	"github.com/vitea-labs/storefront-api/internal/shopify"
	"github.com/vitea-labs/storefront-api/internal/storage/postgres"
	redisstore "github.com/vitea-labs/storefront-api/internal/storage/redis"
	"github.com/vitea-labs/storefront-api/internal/turnstile"
	"github.com/vitea-labs/storefront-api/internal/webhook"
	"github.com/vitea-labs/storefront-api/pkg/health"
	"github.com/vitea-labs/storefront-api/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Cart storage: Redis when configured, in-process memory otherwise.
	// Memory is fine for single-instance deployments; carts just don't
	// survive restarts.
	var cartRepo cart.Repository
	healthSvc := health.New()
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "create redis client")
		}
		defer func() { _ = rdb.Close() }()
		cartRepo = redisstore.NewCartRepository(rdb, cfg.Cart.TTL)
		healthSvc.AddReadinessCheck("redis", 5*time.Second, health.PingCheck(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	} else {
		lg.Warn("REDIS_URL not set, carts are stored in process memory")
		cartRepo = cart.NewMemoryRepository()
	}

	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	subscriberRepo := postgres.NewSubscriberRepository(pool)
	fulfillmentRepo := postgres.NewFulfillmentRepository(pool)
	rateRepo := postgres.NewRateRepository(pool)

	// Exchange rates: live provider behind a freshness-guarded cache,
	// warmed from the most recent persisted table when one exists.
	priceStore := pricing.NewStore(
		rates.NewClient(cfg.Rates.URL, 10*time.Second),
		cfg.Rates.MaxAge,
	)
	if persisted, err := rateRepo.Latest(ctx); err != nil {
		lg.Warn("Could not load persisted rates, using fallback table", zap.Error(err))
	} else {
		priceStore.Seed(persisted)
	}

	// Commerce platform client and domain services.
	platform := shopify.NewClient(shopify.Config{
		Domain:          cfg.Shopify.Domain,
		StorefrontToken: cfg.Shopify.StorefrontToken,
		APIVersion:      cfg.Shopify.APIVersion,
		Timeout:         cfg.Shopify.Timeout,
	})

	newsSvc, err := newsletter.NewService(ctx, subscriberRepo, turnstile.NewClient(cfg.Turnstile.Secret))
	if err != nil {
		lg.Warn("Newsletter duplicate filter not seeded", zap.Error(err))
	}

	h := handler.New(
		handler.Config{CatalogPageSize: cfg.Catalog.PageSize},
		cart.NewService(cartRepo),
		checkout.NewInitiator(platform, cfg.Shopify.CheckoutHost),
		priceStore,
		platform,
		newsSvc,
		tracking.NewService(fulfillmentRepo),
		webhook.NewVerifier([]byte(cfg.Webhook.Secret), cfg.Webhook.ReplayWindow),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	// The subscribe endpoint gets its own, much stricter limit on top of
	// the global one.
	mux.Handle("POST /api/newsletter/subscribe", httpmiddleware.Wrap(
		h.NewsletterHandler(),
		httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
			Max:    cfg.Newsletter.Max,
			Window: cfg.Newsletter.Window,
		}),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.CartIDHeader, webhook.SignatureHeader, webhook.TimestampHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront-api"),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
