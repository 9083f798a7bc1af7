package main

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"
	"storefront/internal/migrate"
)

func main() {
	log := logger.New(logger.Config{Level: "info", Format: "console", Output: "stdout"}).Named("migrate")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if cfg.DeviceStore.Driver != "postgres" {
		log.Info("device store driver has no schema; nothing to migrate", zap.String("driver", cfg.DeviceStore.Driver))
		return
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DeviceStore.PostgresDSN)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}
	version, _, err := migrate.Version(ctx, pool)
	if err != nil {
		log.Fatal("read schema version", zap.Error(err))
	}
	log.Info("migrations applied", zap.Uint("version", version))
}
