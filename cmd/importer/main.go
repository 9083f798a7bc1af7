package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"storefront/internal/bootstrap"
	"storefront/internal/config"
	"storefront/internal/importer"
	"storefront/internal/logger"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a guest cart CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New(logger.Config{Level: "info", Format: "console", Output: "stdout"}).Named("importer")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	if cfg.DeviceStore.Driver == "memory" {
		log.Fatal("memory device store does not outlive this process; choose file, redis or postgres")
	}

	ctx := context.Background()
	store, closeStore, err := bootstrap.OpenDeviceStore(ctx, cfg.DeviceStore, log)
	if err != nil {
		log.Fatal("open device store", zap.String("driver", cfg.DeviceStore.Driver), zap.Error(err))
	}
	defer closeStore()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	start := time.Now()
	count, err := importer.NewCSVImporter(f, store).Run(ctx)
	if err != nil {
		log.Fatal("import failed", zap.Int("carts_written", count), zap.Error(err))
	}
	log.Info("import finished",
		zap.String("file", filePath),
		zap.Int("carts", count),
		zap.Duration("took", time.Since(start)),
	)
}
