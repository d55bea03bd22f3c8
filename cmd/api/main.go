// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the cmsrest HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Load the token verification key.
//  7. Build the readiness probes.
//  8. Wire the lifecycle families and their HTTP handlers.
//  9. Start the HTTP server, then shut down gracefully on SIGINT/SIGTERM.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/cmsrest/internal/api"
	"github.com/taibuivan/cmsrest/internal/content"
	"github.com/taibuivan/cmsrest/internal/contenttype"
	"github.com/taibuivan/cmsrest/internal/lifecycle"
	"github.com/taibuivan/cmsrest/internal/platform/config"
	"github.com/taibuivan/cmsrest/internal/platform/constants"
	"github.com/taibuivan/cmsrest/internal/platform/metrics"
	"github.com/taibuivan/cmsrest/internal/platform/migration"
	pgstore "github.com/taibuivan/cmsrest/internal/platform/postgres"
	redisstore "github.com/taibuivan/cmsrest/internal/platform/redis"
	"github.com/taibuivan/cmsrest/internal/platform/sec"
	"github.com/taibuivan/cmsrest/internal/role"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "cmsrest"))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "cmsrest"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Verification ─────────────────────────────────────────────
	verifier, err := sec.NewTokenService(cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize token verifier")

	// ── 7. Health Probes ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers([]api.Probe{
		{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	}, log)

	// ── 8. Lifecycle Wiring ───────────────────────────────────────────────
	// One mediator and tag cache is shared by every family; keys are
	// namespaced per family.
	var observer lifecycle.Observer
	var collectors *metrics.Metrics
	if cfg.MetricsEnabled {
		collectors = metrics.New()
		observer = collectors
	}

	mediator := lifecycle.NewMediator(redisstore.NewTagCache(rdb, cfg.TagCacheTTL))

	contentStore := content.NewPostgresStore(pool)
	contentTypeService := contenttype.NewService(
		contenttype.NewPostgresStore(pool),
		contentStore,
		lifecycle.New(lifecycle.FamilyContentType, mediator, observer),
		log,
	)
	contentService := content.NewService(
		contentStore,
		contentTypeService,
		lifecycle.New(lifecycle.FamilyContent, mediator, observer),
		cfg.ArchiveOnPublish,
		log,
	)
	roleService := role.NewService(
		role.NewPostgresStore(pool),
		lifecycle.New(lifecycle.FamilyRole, mediator, observer),
		log,
	)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		ContentTypes: contenttype.NewHandler(contentTypeService),
		Content:      content.NewHandler(contentService),
		Roles:        role.NewHandler(roleService),
		Metrics:      collectors,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, verifier, handlers)

	// ── 10. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
