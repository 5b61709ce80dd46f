package kv

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// Open builds the configured backend, migrating SQL schemas on the way.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger, m *metrics.SyncMetrics) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	driver := cfg.Storage.NormalizedDriver()
	if logg != nil {
		ctx = logg.WithField(ctx, "storage_driver", driver)
	}

	var backend Backend
	switch driver {
	case config.StorageDriverMemory:
		backend = NewMemoryStore()
	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		dbCfg := cfg.DB
		dbCfg.Driver = driver
		client, err := db.New(ctx, dbCfg, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.Up(ctx, client, logg); err != nil {
			_ = client.Close()
			return nil, err
		}
		store, err := NewSQLStore(client)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		backend = store
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		store, err := NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		backend = store
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if logg != nil {
		logg.Info(ctx, "durable store ready")
	}
	return NewInstrumented(backend, m), nil
}
