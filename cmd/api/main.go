// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/artistry/internal/admin"
	"github.com/carterperez-dev/artistry/internal/artwork"
	"github.com/carterperez-dev/artistry/internal/auth"
	"github.com/carterperez-dev/artistry/internal/billing"
	"github.com/carterperez-dev/artistry/internal/config"
	"github.com/carterperez-dev/artistry/internal/core"
	"github.com/carterperez-dev/artistry/internal/download"
	"github.com/carterperez-dev/artistry/internal/entitlement"
	"github.com/carterperez-dev/artistry/internal/health"
	"github.com/carterperez-dev/artistry/internal/ledger"
	"github.com/carterperez-dev/artistry/internal/middleware"
	"github.com/carterperez-dev/artistry/internal/server"
	"github.com/carterperez-dev/artistry/internal/subscription"
	"github.com/carterperez-dev/artistry/internal/user"
	"github.com/carterperez-dev/artistry/migrations"
)

// drainDelay gives load balancers time to observe the failing readiness
// probe before the listener closes.
const drainDelay = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if telemetry.Enabled() {
		logger.Info("tracing enabled", "endpoint", cfg.Otel.Endpoint)
	}

	if cfg.Database.AutoMigrate {
		if err := migrate(cfg.Database.URL); err != nil {
			return err
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	var metrics *core.Metrics
	if cfg.Metrics.Enabled {
		metrics = core.NewMetrics(cfg.Metrics.Namespace)
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		userSvc,
		core.NewTokenDenylist(redis),
	)
	authHandler := auth.NewHandler(authSvc)

	entitlementSvc := entitlement.NewService(entitlement.NewRepository(db.DB))
	entitlementHandler := entitlement.NewHandler(entitlementSvc)

	artworkSvc := artwork.NewService(artwork.NewRepository(db.DB), cfg.Catalog)
	artworkHandler := artwork.NewHandler(artworkSvc)

	ledgerSvc := ledger.NewService(ledger.NewRepository(db.DB), artworkSvc, metrics)
	ledgerHandler := ledger.NewHandler(ledgerSvc)

	subscriptionSvc := subscription.NewService(db.DB, cfg.Billing, metrics)
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	downloadHandler, err := download.NewHandler(
		entitlementSvc,
		artworkSvc,
		ledgerSvc,
		cfg.Media,
		metrics,
	)
	if err != nil {
		return err
	}
	logger.Info("media root opened", "root", cfg.Media.Root)

	scheduler, err := billing.NewScheduler(
		billing.SchedulerConfig{
			RenewalEnabled:  cfg.Billing.RenewalEnabled,
			RenewalSchedule: cfg.Billing.RenewalSchedule,
		},
		subscriptionSvc,
		authRepo,
		logger,
	)
	if err != nil {
		return err
	}

	healthHandler := health.NewHandler(
		health.Probe{Name: "database", Checker: db},
		health.Probe{Name: "redis", Checker: redis},
		health.Probe{Name: "media", Checker: health.MediaRoot(cfg.Media.Root)},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:       db.Stats,
		RedisStats:    redis.PoolStats,
		DBPing:        db.Ping,
		RedisPing:     redis.Ping,
		Tiers:         userSvc,
		Subscriptions: subscriptionSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Instrument(metrics, cfg.Metrics.Path))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if metrics != nil {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	optionalAuth := middleware.OptionalAuth(authSvc)
	adminOnly := middleware.RequireAdmin

	// The artwork group attaches the caller before this limiter runs.
	downloads := middleware.TieredRateLimiter(
		redis.Client,
		middleware.DefaultDownloadTiers,
		entitlementSvc.TierOf,
	)(downloadHandler)

	router.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		entitlementHandler.RegisterRoutes(r, authenticator)
		subscriptionHandler.RegisterRoutes(r, authenticator)
		ledgerHandler.RegisterRoutes(r, authenticator)
		artworkHandler.RegisterRoutes(r, optionalAuth, downloads)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	scheduler.Start()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop error", "error", err)
	}

	if err := downloadHandler.Close(); err != nil {
		logger.Error("media root close error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func migrate(databaseURL string) error {
	migrator, err := core.NewMigrator(databaseURL, migrations.FS)
	if err != nil {
		return err
	}
	defer func() {
		if err := migrator.Close(); err != nil {
			slog.Warn("migrator close", "error", err)
		}
	}()

	return migrator.Up()
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
