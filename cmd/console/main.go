// Command console runs the lighting admin console gateway: it owns the
// operator's session against the lighting backend (remote upstream or the
// built-in identity provider) and serves the SPA's session, navigation,
// administration and audit endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/gorsvet/lighting-console/docs"
	"github.com/gorsvet/lighting-console/internal/api"
	"github.com/gorsvet/lighting-console/internal/core/ports"
	"github.com/gorsvet/lighting-console/internal/core/service"
	mongodb "github.com/gorsvet/lighting-console/internal/infrastructure/db/mongo"
	redisdb "github.com/gorsvet/lighting-console/internal/infrastructure/db/redis"
	"github.com/gorsvet/lighting-console/internal/infrastructure/queue"
	"github.com/gorsvet/lighting-console/internal/infrastructure/store"
	"github.com/gorsvet/lighting-console/internal/infrastructure/upstream"
	"github.com/gorsvet/lighting-console/internal/pkg/config"
	"github.com/gorsvet/lighting-console/pkg/logger"
)

// @title        Lighting Admin Console API
// @version      1.0
// @description  Session, authorization and administration gateway for the municipal street-lighting console.
// @BasePath     /
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Dependencies{Log: log}

	// Redis is optional: without it there is no lockout limiter and no
	// redis token store.
	var (
		rdb     *redis.Client
		limiter ports.LoginLimiter
	)
	if cfg.Redis.Addr != "" {
		var err error
		rdb, err = redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rdb.Close()
		deps.Redis = rdb
		limiter = redisdb.NewLoginLimiter(rdb, cfg.MaxLoginFailures)
	}

	// The session backend: a remote upstream when configured, otherwise
	// the built-in identity provider with Mongo-backed accounts.
	var sessionAPI ports.SessionAPI
	if cfg.UpstreamURL != "" {
		sessionAPI = upstream.NewClient(cfg.UpstreamURL, nil)
		log.Info().Str("upstream", cfg.UpstreamURL).Msg("using remote session backend")
	} else {
		if cfg.JWTSecret == "" {
			log.Fatal().Msg("JWT_SECRET is required with the built-in identity provider")
		}
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connection failed")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		deps.Mongo = db

		users := mongodb.NewUserRepository(db)
		identity := service.NewIdentityService(users, limiter, cfg.JWTSecret, 24*time.Hour)
		sessionAPI = identity
		deps.Identity = identity
		deps.Users = users

		audit := mongodb.NewAuditRepository(db)
		dispatcher := queue.NewDispatcher(cfg.AuditWorkers, audit, log)
		dispatcher.Start(ctx)
		deps.Audit = audit
		deps.AuditSink = dispatcher
	}

	sessionStore := selectTokenStore(ctx, cfg, rdb, log)
	sessionManager := service.NewSessionManager(sessionAPI, sessionStore, deps.AuditSink, log)
	sessionManager.Initialize(ctx)
	deps.Session = sessionManager

	deps.StaticDir = cfg.StaticDir
	e := api.NewRouter(deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("lighting console listening")
	if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// selectTokenStore picks the credential store per configuration, degrading
// to memory-only with a warning when the chosen backend is unusable.
func selectTokenStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) ports.TokenStore {
	switch cfg.TokenStore {
	case "redis":
		if rdb != nil {
			return redisdb.NewTokenStore(rdb)
		}
		log.Warn().Msg("TOKEN_STORE=redis but no REDIS_ADDR, falling back to file store")
		fallthrough
	case "file", "":
		path := cfg.TokenFile
		if !filepath.IsAbs(path) {
			if home, err := os.UserHomeDir(); err == nil {
				path = filepath.Join(home, path)
			}
		}
		fileStore := store.NewFileTokenStore(path)
		// Probe writability once: storage-disabled environments degrade
		// to an in-memory session instead of failing every login.
		if token, err := fileStore.Get(ctx); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("credential file unreadable, session is memory-only")
			return store.NewMemoryTokenStore()
		} else if token == "" {
			if err := fileStore.Set(ctx, ""); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("credential file unwritable, session is memory-only")
				return store.NewMemoryTokenStore()
			}
		}
		return fileStore
	default:
		log.Warn().Str("store", cfg.TokenStore).Msg("unknown token store, session is memory-only")
		return store.NewMemoryTokenStore()
	}
}
