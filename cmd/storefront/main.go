package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/backend"
	"storefront/internal/bootstrap"
	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/service/device"
	"storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}).
		With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("init telemetry", zap.Error(err))
	}

	store, closeStore, err := bootstrap.OpenDeviceStore(ctx, cfg.DeviceStore, log)
	if err != nil {
		log.Fatal("open device store", zap.String("driver", cfg.DeviceStore.Driver), zap.Error(err))
	}
	defer closeStore()

	client, err := backend.New(backend.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIPrefix:      cfg.Backend.APIPrefix,
		PaymentsPrefix: cfg.Backend.PaymentsPrefix,
		Timeout:        cfg.Backend.Timeout,
	}, log)
	if err != nil {
		log.Fatal("init backend client", zap.Error(err))
	}

	var m *metrics.Metrics
	if cfg.HTTP.MetricsEnabled {
		m = metrics.New()
	}

	srv, err := httpserver.New(cfg.HTTP.Addr, httpserver.Deps{
		Backend:     client,
		DeviceStore: store,
		Devices: device.New(device.Config{
			CookieName: cfg.Device.CookieName,
			MaxAge:     cfg.Device.CookieMaxAge,
			Secure:     cfg.Device.CookieSecure || cfg.IsProduction(),
		}),
		Metrics:          m,
		Logger:           log,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		ServiceName:      cfg.Telemetry.ServiceName,
	})
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}
}
