// Package app assembles the store, event publisher and ledger service from configuration.
// Both the HTTP server and ledgerctl build their dependencies through it.
package app

import (
	"context"
	"errors"
	"fmt"

	"paytrack/internal/config"
	"paytrack/internal/handlers"
	"paytrack/internal/repositories"
	"paytrack/internal/repositories/memory"
	"paytrack/internal/services/ledger"
	"paytrack/internal/services/notification"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Container owns every long-lived handle. Close releases them.
type Container struct {
	Repo    repositories.LedgerRepository
	Ledger  ledger.Service
	Health  *handlers.HealthHandler
	Metrics *ledger.StatsCollector

	DB    *gorm.DB
	Redis *redis.Client

	log zerolog.Logger
}

// Build opens the configured store and wires the ledger service.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{log: log}

	if err := c.openStore(ctx, cfg); err != nil {
		return nil, err
	}

	var publisher ledger.Publisher = notification.NoopService{}
	var redisCheck handlers.Checker
	if cfg.Redis.Enabled {
		c.Redis = notification.NewRedisClient(&notification.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := notification.Ping(ctx, c.Redis); err != nil {
			// Events are best effort.
			log.Warn().Err(err).Msg("redis unavailable at startup")
		}
		publisher = notification.NewService(c.Redis, cfg.Redis.EventsChannel)
		redisCheck = func(ctx context.Context) error { return notification.Ping(ctx, c.Redis) }
	}

	c.Metrics = ledger.NewStatsCollector()
	c.Ledger = ledger.NewService(c.Repo, publisher, ledger.Config{
		AllowSelfTransfer:   cfg.Ledger.AllowSelfTransfer,
		DefaultHistoryLimit: cfg.Ledger.HistoryLimit,
	}, c.Metrics, log.With().Str("component", "ledger").Logger())

	c.Health = handlers.NewHealthHandler(map[string]handlers.Checker{
		"database": c.Repo.Ping,
		"redis":    redisCheck,
	}).WithStats(func() interface{} { return c.Metrics.Snapshot() })
	return c, nil
}

func (c *Container) openStore(ctx context.Context, cfg config.Config) error {
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		c.log.Warn().Msg("using in-memory ledger store; data is lost on exit")
		c.Repo = memory.NewStore()
		return nil
	case config.StorePostgres:
		db, err := repositories.OpenPostgres(ctx, cfg.Database, c.log)
		if err != nil {
			return err
		}
		if cfg.Database.AutoMigrate {
			if err := repositories.Migrate(ctx, db); err != nil {
				_ = repositories.Close(db)
				return err
			}
		}
		c.DB = db
		c.Repo = repositories.NewLedgerRepository(db, cfg.Database.TxMaxRetries)
		return nil
	default:
		return fmt.Errorf("unsupported store %q", cfg.Ledger.Store)
	}
}

// Close releases the database pool and the Redis client.
func (c *Container) Close() error {
	var errs []error
	if c.DB != nil {
		if err := repositories.Close(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
