// Copyright (c) 2026 Quill. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Quill HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Connect to Redis when configured.
//  5. Seed the built-in roles.
//  6. Wire services and HTTP handlers.
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
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/quill/internal/api"
	"github.com/taibuivan/quill/internal/platform/config"
	"github.com/taibuivan/quill/internal/platform/constants"
	"github.com/taibuivan/quill/internal/platform/federated"
	"github.com/taibuivan/quill/internal/platform/mailer"
	"github.com/taibuivan/quill/internal/platform/migration"
	pgstore "github.com/taibuivan/quill/internal/platform/postgres"
	redisstore "github.com/taibuivan/quill/internal/platform/redis"
	"github.com/taibuivan/quill/internal/platform/sec"
	"github.com/taibuivan/quill/internal/platform/storage"
	"github.com/taibuivan/quill/internal/users/account"
	"github.com/taibuivan/quill/internal/users/auth"
	"github.com/taibuivan/quill/internal/users/role"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("session_store", cfg.SessionStore),
	)

	// Root context: cancelled on shutdown so background goroutines stop.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
	}

	// ── 5. Security Primitives ────────────────────────────────────────────
	accessCodec, err := sec.NewTokenCodec(cfg.JWTAccessSecret, cfg.JWTIssuer, sec.KindAccess)
	must(log, err, "initialize access token codec")

	refreshCodec, err := sec.NewTokenCodec(cfg.JWTRefreshSecret, cfg.JWTIssuer, sec.KindRefresh)
	must(log, err, "initialize refresh token codec")

	hasher := sec.NewBcryptHasher(cfg.BcryptCost)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	userRepository := auth.NewUserRepository(pool)
	sessions := newSessionStore(cfg, pool, rdb, userRepository)

	issuer := auth.NewIssuer(accessCodec, refreshCodec, sessions, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	lifecycle := auth.NewLifecycle(issuer, sessions)

	directory := role.NewDirectory(role.NewRepository(pool), userRepository, lifecycle, log)
	must(log, directory.Seed(startupCtx, sec.DefaultRoles...), "seed roles")

	authService := auth.NewService(userRepository, directory, hasher)
	resetFlow := auth.NewResetFlow(userRepository, hasher, newMailer(cfg, log), cfg.ResetTokenTTL, cfg.APIURL, log)

	accountService := account.NewService(userRepository, authService, lifecycle, newAvatarStorage(startupCtx, cfg, log), log)

	// ── 7. Health handlers ────────────────────────────────────────────────
	health := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}
	if rdb != nil {
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}
	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log,
		api.Security{Access: accessCodec, Refresh: refreshCodec, Roles: directory},
		api.Handlers{
			Liveness:  liveness,
			Readiness: readiness,
			Auth:      newAuthHandler(cfg, log, authService, lifecycle, resetFlow),
			Role:      role.NewHandler(directory),
			Account:   account.NewHandler(accountService),
		},
	)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("server_shutting_down", slog.Duration("timeout", constants.ShutdownTimeout))
	rootCancel()

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// newSessionStore picks the refresh token backend named by SESSION_STORE.
func newSessionStore(cfg *config.Config, pool pgstore.Querier, rdb *goredis.Client, users auth.UserLookup) auth.SessionStore {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		return auth.NewRedisSessionStore(rdb, users, cfg.RefreshTokenTTL)
	case config.SessionStoreMemory:
		return auth.NewMemorySessionStore(users)
	default:
		return auth.NewSessionStore(pool)
	}
}

// newAuthHandler enables Facebook sign-in when app credentials are configured.
func newAuthHandler(cfg *config.Config, log *slog.Logger, service *auth.Service, lifecycle *auth.Lifecycle, reset *auth.ResetFlow) *auth.Handler {
	handler := auth.NewHandler(service, lifecycle, reset, cfg.ClientOrigin)
	if !cfg.FacebookEnabled() {
		log.Info("facebook_sign_in_disabled")
		return handler
	}

	provider, err := federated.NewFacebook(federated.FacebookConfig{
		AppID:       cfg.FacebookAppID,
		AppSecret:   cfg.FacebookAppSecret,
		RedirectURL: strings.TrimRight(cfg.APIURL, "/") + constants.FacebookRedirectPath,
	})
	must(log, err, "initialize facebook provider")

	return handler.WithFacebook(provider)
}

// newMailer relays through SMTP when a host is configured and logs otherwise.
func newMailer(cfg *config.Config, log *slog.Logger) *mailer.Mailer {
	if !cfg.MailEnabled() {
		log.Warn("smtp_not_configured_mails_will_be_logged")
		return mailer.New(mailer.NewLogSender(log), cfg.APIURL)
	}

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		TLS:      cfg.SMTPTLS,
	})
	must(log, err, "initialize smtp sender")

	return mailer.New(sender, cfg.APIURL)
}

// newAvatarStorage returns nil when no bucket is configured, which disables
// the avatar endpoints.
func newAvatarStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) storage.ObjectStorage {
	if !cfg.StorageEnabled() {
		log.Warn("s3_not_configured_avatars_disabled")
		return nil
	}

	store, err := storage.NewS3Storage(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	must(log, err, "initialize avatar storage")

	return store
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Limited to startup wiring. After startup, errors are returned and handled.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
