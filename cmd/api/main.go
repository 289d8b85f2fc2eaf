// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Hafiz HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Run database migrations (idempotent).
//  4. Connect to PostgreSQL (pgxpool).
//  5. Connect to Redis when configured (session revocation).
//  6. Wire mail, sessions, and domain services.
//  7. Start HTTP server with graceful shutdown.
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

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/hafiz/internal/api"
	"github.com/taibuivan/hafiz/internal/hafiz"
	"github.com/taibuivan/hafiz/internal/identity"
	"github.com/taibuivan/hafiz/internal/platform/config"
	"github.com/taibuivan/hafiz/internal/platform/constants"
	"github.com/taibuivan/hafiz/internal/platform/mail"
	"github.com/taibuivan/hafiz/internal/platform/middleware"
	"github.com/taibuivan/hafiz/internal/platform/migration"
	pgstore "github.com/taibuivan/hafiz/internal/platform/postgres"
	redisstore "github.com/taibuivan/hafiz/internal/platform/redis"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/internal/session"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("revocation_enabled", cfg.RedisURL != ""),
		slog.Bool("smtp_enabled", cfg.SMTPHost != ""),
	)

	// Root context lives until shutdown; startup gets a 30s deadline so
	// misconfiguration fails fast.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	health := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}

	// ── 5. Redis (optional) ───────────────────────────────────────────────
	var revocations session.RevocationStore
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer closeRedis(log, rdb)

		revocations = session.NewRedisRevocationStore(rdb)
		health.CheckRevocations = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	} else {
		log.Warn("session_revocation_disabled", slog.String("reason", "REDIS_URL not set"))
	}

	// ── 6. Mail ───────────────────────────────────────────────────────────
	var transport mail.Dispatcher = mail.NewLogDispatcher(log)
	if cfg.SMTPHost != "" {
		smtp, err := mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, log)
		must(log, err, "configure smtp")
		transport = smtp
	}
	dispatcher := mail.NewAsyncDispatcher(transport, constants.MailDeliveryTimeout, log)

	// ── 7. Sessions ───────────────────────────────────────────────────────
	signer, err := sec.NewSessionSigner(cfg.SessionSecret, constants.SessionIssuer)
	must(log, err, "initialize session signer")

	issuer := session.NewIssuer(signer, session.Options{
		TTL:    cfg.SessionTTL,
		Secure: cfg.CookieSecure,
	}, revocations, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	identityService := identity.NewService(
		identity.NewPostgresRepository(pool),
		sec.NewBcryptHasher(bcrypt.DefaultCost),
		sec.NewRandomTokenGenerator(sec.DefaultTokenLength),
		dispatcher,
		issuer,
		identity.Options{AppBaseURL: cfg.AppBaseURL, ResetTokenTTL: cfg.ResetTokenTTL},
		log,
	)
	proxies, err := middleware.ParseTrustedProxies(cfg.Proxies())
	must(log, err, "parse trusted proxies")
	authLimiter := middleware.NewRateLimiter(rootCtx, constants.AuthRateLimitRPS, constants.AuthRateLimitBurst, proxies)

	hafizService := hafiz.NewService(hafiz.NewPostgresRepository(pool), log)

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, identity.NewResolver(issuer, identityService, log), api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Identity:  identity.NewHandler(identityService, issuer, authLimiter),
		Hafiz:     hafiz.NewHandler(hafizService),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
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
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	shutdownErr := server.Shutdown(constants.ShutdownTimeout)
	rootCancel()

	// Let queued verification and reset mails go out.
	dispatcher.Close()

	if shutdownErr != nil {
		log.Error("shutdown_error", slog.Any("error", shutdownErr))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger carrying the app attribute.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", "hafiz"))
	slog.SetDefault(log)
	return log
}

func closeRedis(log *slog.Logger, rdb *redis.Client) {
	log.Info("closing_redis_client")
	if err := rdb.Close(); err != nil {
		log.Error("redis_close_error", slog.Any("error", err))
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
