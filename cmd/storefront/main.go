package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/internal/app"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/instance"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

const serviceName = "storefront"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"storage":  cfg.Storage.NormalizedDriver(),
		"catalog":  cfg.Catalog.BaseURL,
		"instance": instance.GetID(),
	})

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)
	if cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, logg, cfg.Metrics.Addr, registry)
	}

	store, err := kv.Open(ctx, cfg, logg, syncMetrics)
	if err != nil {
		logg.Error(ctx, "failed to open kv store", err)
		os.Exit(1)
	}

	application, err := app.New(app.Params{
		Config:  cfg,
		Store:   store,
		Logger:  logg,
		Metrics: syncMetrics,
	})
	if err != nil {
		_ = store.Close()
		logg.Error(ctx, "failed to build storefront", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logg.Error(context.Background(), "error closing storefront", err)
		}
	}()

	if err := application.Start(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "startup interrupted")
		return
	}

	session := application.Session.Snapshot()
	if _, err := application.LoadHome(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "home listing unavailable")
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"authenticated": session.IsAuthenticated,
		"home_items":    len(application.Home()),
		"cart_lines":    len(application.Cart.Items()),
		"cart_units":    application.Cart.Count(),
		"cart_total":    application.Cart.Total(),
	}), "storefront ready")

	<-ctx.Done()
	logg.Info(ctx, "storefront shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logg.Info(logg.WithField(ctx, "addr", addr), "serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped unexpectedly", err)
	}
}
