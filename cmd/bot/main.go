// Copyright (c) 2026 Comiket Bot. All rights reserved.

// Command bot is the entry point for the Comiket reservation bot.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire the currency converter, scraper, and catalogue service.
//  7. Open the Discord gateway session.
//  8. Start the health probe server with graceful shutdown.
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

	"github.com/comiketbot/comiket/internal/api"
	"github.com/comiketbot/comiket/internal/bot"
	"github.com/comiketbot/comiket/internal/catalog"
	"github.com/comiketbot/comiket/internal/currency"
	"github.com/comiketbot/comiket/internal/platform/config"
	"github.com/comiketbot/comiket/internal/platform/constants"
	"github.com/comiketbot/comiket/internal/platform/migration"
	pgstore "github.com/comiketbot/comiket/internal/platform/postgres"
	redisstore "github.com/comiketbot/comiket/internal/platform/redis"
	"github.com/comiketbot/comiket/internal/scraper"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("health_port", cfg.HealthPort),
		slog.String("prefix", cfg.CommandPrefix),
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

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	rateSource := currency.NewHTTPSource(cfg.CurrencyAPIKey, cfg.CurrencyFrom, cfg.CurrencyTo)
	rateCache := currency.NewRedisCache(rdb, cfg.CurrencyFrom, cfg.CurrencyTo, constants.RateTTL)
	converter := currency.NewConverter(rateSource, rateCache, constants.RateTTL, log)

	melonbooks := scraper.NewMelonbooks()

	repository := catalog.NewPostgresRepository(pool)
	service := catalog.NewService(repository, melonbooks, converter, log)

	// ── 7. Discord Session ────────────────────────────────────────────────
	discordBot, err := bot.New(cfg.DiscordToken, cfg.CommandPrefix, service, converter, log)
	must(log, err, "create discord session")

	must(log, discordBot.Start(), "open discord session")
	defer func() {
		log.Info("closing discord session")
		if cerr := discordBot.Stop(); cerr != nil {
			log.Error("discord close error", slog.Any("error", cerr))
		}
	}()

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckDiscord: discordBot.Ping,
	}, log)

	server := api.NewServer(cfg.HealthPort, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or probe server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("probe server error", slog.Any("error", err))
	}

	// Give in-flight commands and probes enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("bot stopped cleanly")
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
