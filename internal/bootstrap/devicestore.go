// Package bootstrap opens the shared infrastructure every binary needs.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/devicestore"
	"storefront/internal/migrate"
)

// OpenDeviceStore opens the store selected by cfg.Driver. The returned func releases
// its connections and is never nil.
func OpenDeviceStore(ctx context.Context, cfg config.DeviceStoreConfig, log *zap.Logger) (devicestore.Store, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "memory":
		log.Warn("device store is in memory; carts are lost on restart")
		return devicestore.NewMemory(), noop, nil
	case "file":
		s, err := devicestore.NewFile(cfg.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "redis":
		s, err := devicestore.NewRedis(ctx, devicestore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		version, dirty, err := migrate.Version(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("read schema version: %w", err)
		}
		if version == 0 || dirty {
			log.Warn("device store schema not migrated; run cmd/migrate", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		return devicestore.NewPostgres(pool), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown device store driver %q", cfg.Driver)
	}
}
