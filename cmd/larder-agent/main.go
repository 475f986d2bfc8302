// Command larder-agent runs the household-context agent: it hydrates the
// session context from the identity provider and backing stores, and serves
// the local HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/larderhq/larder-go/config"
	"github.com/larderhq/larder-go/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.IsDev {
		logger = bootstrap.InitDevLogger()
	}

	logger.InfoContext(ctx, "starting larder agent",
		"auth_mode", cfg.Auth.Mode,
		"db_host", cfg.Postgres.Host,
		"db_name", cfg.Postgres.Name,
		"realtime", cfg.Realtime.Enabled(),
	)

	infra, err := initInfrastructure(&cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(ctx, logger)

	if cfg.Postgres.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, infra.db, logger); err != nil {
			return err
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	provider, providerClose, err := bootstrap.BuildProvider(ctx, bootstrap.ProviderConfig{
		Auth:        cfg.Auth,
		RedisClient: infra.redis,
		SessionKey:  cfg.Redis.SessionKey,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	services, err := bootstrap.BuildServices(bootstrap.ServiceDeps{
		Config:        &cfg,
		DB:            infra.db,
		NATSConn:      infra.nats,
		Provider:      provider,
		ProviderClose: providerClose,
		Logger:        logger,
	})
	if err != nil {
		providerClose()
		return err
	}

	if err = services.Start(ctx); err != nil {
		services.Shutdown()
		return err
	}

	server := bootstrap.StartHTTPServer(bootstrap.HTTPServerConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})

	waitForSignal(ctx, logger)

	// Shutdown order: stop accepting requests, then tear down the engine and
	// its feeds, then let the deferred connection closes run.
	if shutdownErr := bootstrap.ShutdownHTTPServer(ctx, server, logger); shutdownErr != nil {
		logger.ErrorContext(ctx, "HTTP server shutdown failed", "error", shutdownErr)
	}
	services.Shutdown()
	return nil
}

type infrastructure struct {
	db    *sql.DB
	redis redis.UniversalClient
	nats  *nats.Conn
}

// initInfrastructure connects the backing stores. Redis is only needed for
// the persisted-session slot in oauth mode; NATS only when realtime
// invalidation is configured.
func initInfrastructure(cfg *config.AppConfig, logger *slog.Logger) (*infrastructure, error) {
	db, err := bootstrap.ConnectDB(bootstrap.ConnectionConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	infra := &infrastructure{db: db}

	if cfg.Auth.Mode == config.AuthModeOAuth {
		redisClient, redisErr := bootstrap.ConnectRedis(bootstrap.ConnectionConfig{RedisConfig: cfg.Redis, Logger: logger})
		if redisErr != nil {
			// Degrade rather than fail: the provider runs memory-only.
			logger.Warn("redis unavailable; sessions will not survive restarts", "error", redisErr)
		} else {
			infra.redis = redisClient
		}
	}

	if cfg.Realtime.Enabled() {
		conn, natsErr := bootstrap.ConnectNATS(cfg.Realtime, logger)
		if natsErr != nil {
			logger.Warn("nats unavailable; realtime invalidation disabled", "error", natsErr)
		} else {
			infra.nats = conn
		}
	}

	return infra, nil
}

func (i *infrastructure) close(ctx context.Context, logger *slog.Logger) {
	if i.nats != nil {
		i.nats.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", err)
		}
	}
	if err := i.db.Close(); err != nil {
		logger.ErrorContext(ctx, "close database failed", "error", err)
	}
}

func waitForSignal(ctx context.Context, logger *slog.Logger) {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	logger.InfoContext(ctx, "shutdown signal received")
}
