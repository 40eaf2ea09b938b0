// Command report prints dashboards, summaries and trends for the configured
// record store, and exports them as CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"expensedash/internal/backend"
	"expensedash/internal/cli"
	"expensedash/internal/config"
	applog "expensedash/internal/log"
	"expensedash/internal/sheets"
	"expensedash/internal/storage"
)

// env holds what the commands reach outside the process for.
type env struct {
	config     func() (*config.Config, error)
	store      func(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.RecordFetcher, func() error, error)
	syncCounts func(ctx context.Context, cfg *config.Config) (map[storage.SyncStatus]int, error)
}

func defaultEnv() env {
	return env{
		config:     loadConfig,
		store:      openStore,
		syncCounts: readSyncCounts,
	}
}

func loadConfig() (*config.Config, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore builds the configured backend without the snapshot cache, a
// single report only fetches once.
func openStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.RecordFetcher, func() error, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	bc.SnapshotTTL = 0
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, err
	}
	return res.Backend, res.Close, nil
}

func readSyncCounts(ctx context.Context, cfg *config.Config) (map[storage.SyncStatus]int, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	return repo.SyncCounts(ctx)
}

type rootOptions struct {
	logLevel string
	month    string
	year     string
}

func newRootCmd(e env) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "report",
		Short: "Expense reports from the configured record store",
		Long: `report fetches the expense records from the configured backend, normalizes
them and prints dashboards, summaries and trends. Filters default to all months
and all years.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&opts.month, "month", "m", "", "Month filter: 1-12, Jan..Dec or all")
	root.PersistentFlags().StringVarP(&opts.year, "year", "y", "", "Year filter, e.g. 2024, or all")

	root.AddCommand(
		newDashboardCmd(e, opts),
		newSummaryCmd(e, opts),
		newTrendsCmd(e, opts),
		newExportCmd(e, opts),
		newBillingCycleCmd(),
		newClassifyCmd(e, opts),
		newSyncStatusCmd(e),
	)
	return root
}

func (o *rootOptions) logger(w io.Writer) *applog.Logger {
	lvl, err := applog.ParseLevel(o.logLevel)
	logger := applog.New(applog.Config{Level: lvl, Component: applog.ComponentReport, Output: w})
	if err != nil {
		logger.Warn("Falling back to info logging", applog.FieldError, err)
	}
	return logger
}

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
