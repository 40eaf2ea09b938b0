package main

import (
	"context"
	"os"
	"time"

	"expensedash/internal/backend"
	"expensedash/internal/cache"
	"expensedash/internal/cli"
	apphttp "expensedash/internal/http"
	applog "expensedash/internal/log"
	"expensedash/internal/services"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	tax, err := cli.LoadTaxonomy(cfg)
	if err != nil {
		logger.Error("Failed to load taxonomy", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Taxonomy loaded", "name", tax.Name(), "categories", len(tax.Categories()))

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	if res.Cached != nil {
		cacheManager.Register(res.Cached.Cache())
		cacheManager.StartCleanup(cfg.SnapshotCacheTTL)
	}

	classifier := cli.NewClassifier(ctx, cfg, tax, logger)
	records := services.NewRecordService(tax, classifier, res.Backend,
		services.WithRecordLocation(cfg.Location()),
		services.WithRecordLogger(logger.WithComponent(applog.ComponentSubmit).Logger))
	analytics := cli.NewAnalytics(cfg, tax, res.Backend, logger)

	deps := apphttp.Deps{
		Taxonomy:   tax,
		Records:    records,
		Analytics:  analytics,
		Classifier: classifier,
	}
	if res.Pinger != nil {
		deps.Pinger = res.Pinger
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Location:           cfg.Location(),
		Logger:             logger,
	}, deps)

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	logger.Info("Starting expensedash server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"timezone", cfg.Location().String())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
