package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"storefront/internal/bootstrap"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/seed"
	"storefront/internal/service/device"
)

func main() {
	var (
		deviceID string
		lines    int
		seedVal  uint64
	)
	flag.StringVar(&deviceID, "device", "", "Device id to seed (a new one is issued when empty)")
	flag.IntVar(&lines, "lines", 3, "Number of demo cart lines")
	flag.Uint64Var(&seedVal, "seed", 1, "Random seed")
	flag.Parse()

	log := logger.New(logger.Config{Level: "info", Format: "console", Output: "stdout"}).Named("seed")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	devices := device.New(device.Config{CookieName: cfg.Device.CookieName})
	if deviceID == "" {
		if deviceID, err = devices.Issue(); err != nil {
			log.Fatal("issue device id", zap.Error(err))
		}
	} else if deviceID, err = devices.Validate(deviceID); err != nil {
		log.Fatal("invalid device id", zap.Error(err))
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

	c, err := seed.Apply(ctx, store, deviceID, lines, seedVal)
	if err != nil {
		log.Fatal("seed apply", zap.Error(err))
	}
	log.Info("seed applied",
		zap.String("device_id", deviceID),
		zap.Int("lines", len(c.Lines)),
		zap.String("total", c.Total().StringFixed(2)),
		zap.String("cookie", devices.CookieName()+"="+deviceID),
	)
}
