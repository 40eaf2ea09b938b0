// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/server, cmd/sync-worker and cmd/report.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensedash/internal/aggregate"
	"expensedash/internal/config"
	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/normalize"
	"expensedash/internal/predictor/gemini"
	"expensedash/internal/services"
	"expensedash/internal/sheets"
	"expensedash/internal/storage"
	"expensedash/internal/taxonomy"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging at LOG_LEVEL and sets it as
// the default logger. An unknown level falls back to info with a warning.
func SetupLogger(level, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", applog.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *applog.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// LoadTaxonomy returns the taxonomy named by TAXONOMY_FILE, or the
// TAXONOMY_PRESET when no file is set.
func LoadTaxonomy(cfg *config.Config) (*taxonomy.Taxonomy, error) {
	if cfg.TaxonomyFile != "" {
		tax, err := taxonomy.Load(cfg.TaxonomyFile)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy file %s: %w", cfg.TaxonomyFile, err)
		}
		return tax, nil
	}
	tax, err := taxonomy.Preset(cfg.TaxonomyPreset)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy preset: %w", err)
	}
	return tax, nil
}

// NewClassifier builds the category classifier. Without GEMINI_API_KEY it
// has no predictor and always falls back to the default category.
func NewClassifier(ctx context.Context, cfg *config.Config, tax *taxonomy.Taxonomy, logger *applog.Logger) *taxonomy.Classifier {
	log := logger.WithComponent(applog.ComponentClassifier)
	opts := []taxonomy.ClassifierOption{
		taxonomy.WithTimeout(cfg.ClassifyTimeout),
		taxonomy.WithLogger(log.Logger),
	}

	if cfg.GeminiAPIKey == "" {
		log.Info("No GEMINI_API_KEY set, classification falls back to " + string(core.Miscellaneous))
		return taxonomy.NewClassifier(tax, nil, opts...)
	}

	p, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Error("Failed to initialize Gemini predictor, classification disabled", applog.FieldError, err)
		return taxonomy.NewClassifier(tax, nil, opts...)
	}
	log.Info("Gemini predictor initialized", "model", cfg.GeminiModel)
	return taxonomy.NewClassifier(tax, p, opts...)
}

// NewAnalytics wires the normalize and aggregate stages over fetcher.
func NewAnalytics(cfg *config.Config, tax *taxonomy.Taxonomy, fetcher sheets.RecordFetcher, logger *applog.Logger) *services.Analytics {
	exclude := make([]core.Category, 0, len(cfg.TopCategoryExclude))
	for _, c := range cfg.TopCategoryExclude {
		if cat, ok := tax.Category(c); ok {
			exclude = append(exclude, cat)
			continue
		}
		logger.Warn("Ignoring unknown TOP_CATEGORY_EXCLUDE entry", applog.FieldCategory, c)
	}

	normalizer := normalize.New(tax, normalize.WithLocation(cfg.Location()))
	engine := aggregate.NewEngine(tax, exclude...)
	return services.NewAnalytics(fetcher, normalizer, engine, logger.WithComponent(applog.ComponentAnalytics).Logger)
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals, and a
// channel closed once cleanup has returned or the timeout has passed.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown, "signal", sig.String())
		case <-ctx.Done():
			logger.Info("Context cancelled", applog.FieldOperation, applog.OpShutdown)
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
