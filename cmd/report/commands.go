package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expensedash/internal/aggregate"
	"expensedash/internal/calendar"
	"expensedash/internal/cli"
	"expensedash/internal/config"
	applog "expensedash/internal/log"
	"expensedash/internal/report"
	"expensedash/internal/services"
	"expensedash/internal/storage"
	"expensedash/internal/taxonomy"
)

// session is one report run against the configured store.
type session struct {
	cfg       *config.Config
	tax       *taxonomy.Taxonomy
	analytics *services.Analytics
	filter    aggregate.Filter
	logger    *applog.Logger
	close     func() error
}

func openSession(cmd *cobra.Command, e env, o *rootOptions) (*session, error) {
	f, err := aggregate.ParseFilter(o.month, o.year)
	if err != nil {
		return nil, err
	}
	logger := o.logger(cmd.ErrOrStderr())

	cfg, err := e.config()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	tax, err := cli.LoadTaxonomy(cfg)
	if err != nil {
		return nil, err
	}
	store, closeFn, err := e.store(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &session{
		cfg:       cfg,
		tax:       tax,
		analytics: cli.NewAnalytics(cfg, tax, store, logger),
		filter:    f,
		logger:    logger,
		close:     closeFn,
	}, nil
}

func (s *session) Close() {
	if s.close == nil {
		return
	}
	if err := s.close(); err != nil {
		s.logger.Warn("Store cleanup failed", applog.FieldError, err)
	}
}

func newDashboardCmd(e env, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print the headline figures and the three summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, e, o)
			if err != nil {
				return err
			}
			defer s.Close()

			view := s.analytics.Dashboard(cmd.Context(), s.filter)
			return report.WriteDashboard(cmd.OutOrStdout(), view.Dashboard, view.Report, view.Failure)
		},
	}
}

func newSummaryCmd(e env, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "summary DIMENSION",
		Short:     "Print the spend grouped by category, theme or payment method",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(aggregate.ByCategory), string(aggregate.ByTheme), string(aggregate.ByPaymentMethod)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, err := aggregate.ParseDimension(args[0])
			if err != nil {
				return err
			}
			s, err := openSession(cmd, e, o)
			if err != nil {
				return err
			}
			defer s.Close()

			sum, snap := s.analytics.Summary(cmd.Context(), s.filter, dim)
			if snap.Err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No data to display (%s error fetching records)\n", snap.Failure())
				return nil
			}
			return report.WriteSummaryTable(cmd.OutOrStdout(), fmt.Sprintf("By %s, %s", dim, s.filter), sum)
		},
	}
}

func newTrendsCmd(e env, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "trends weekly|monthly",
		Short:     "Print weekly buckets within a month or the monthly pivot of a year",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"weekly", "monthly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, e, o)
			if err != nil {
				return err
			}
			defer s.Close()

			snap := s.analytics.Snapshot(cmd.Context())
			if snap.Err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No data to display (%s error fetching records)\n", snap.Failure())
				return nil
			}
			if args[0] == "weekly" {
				return report.WriteWeeklyTable(cmd.OutOrStdout(), aggregate.WeeklyWithinMonth(snap.Records, s.filter))
			}
			return report.WritePivotTable(cmd.OutOrStdout(), aggregate.PivotMonthly(snap.Records, s.filter))
		},
	}
}

func newExportCmd(e env, o *rootOptions) *cobra.Command {
	var kind, dimension, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records, a summary or the monthly pivot as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var dim aggregate.Dimension
			switch kind {
			case "records", "pivot":
			case "summary":
				var err error
				if dim, err = aggregate.ParseDimension(dimension); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export kind %q", kind)
			}

			s, err := openSession(cmd, e, o)
			if err != nil {
				return err
			}
			defer s.Close()

			snap := s.analytics.Snapshot(cmd.Context())
			if snap.Err != nil {
				return fmt.Errorf("records could not be fetched (%s error): %w", snap.Failure(), snap.Err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			switch kind {
			case "summary":
				err = report.WriteSummaryCSV(w, s.analytics.Engine().Summary(snap.Records, s.filter, dim))
			case "pivot":
				err = report.WritePivotCSV(w, aggregate.PivotMonthly(snap.Records, s.filter))
			default:
				err = report.WriteRecordsCSV(w, s.filter.Apply(snap.Records), s.tax)
			}
			if err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
			s.logger.Info("Export written", "kind", kind, "output", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "records", "What to export: records, summary or pivot")
	cmd.Flags().StringVarP(&dimension, "dimension", "d", string(aggregate.ByCategory), "Summary dimension for --kind summary")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, stdout when empty")
	return cmd
}

func newBillingCycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "billing-cycle DATE...",
		Short: "Print the billing cycle and week bucket of each YYYY-MM-DD date",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tBILLING CYCLE\tWEEK\tPERIOD")
			for _, arg := range args {
				d, err := time.Parse("2006-01-02", arg)
				if err != nil {
					return fmt.Errorf("invalid date %q, want YYYY-MM-DD", arg)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					arg,
					calendar.BillingCycleFor(d),
					calendar.WeekBucketFor(d).Label(),
					calendar.PeriodLabel(d.Year(), d.Month()))
			}
			return tw.Flush()
		},
	}
}

func newClassifyCmd(e env, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify NAME",
		Short: "Suggest a category for an expense name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return errors.New("name must not be empty")
			}
			cfg, err := e.config()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tax, err := cli.LoadTaxonomy(cfg)
			if err != nil {
				return err
			}
			classifier := cli.NewClassifier(cmd.Context(), cfg, tax, o.logger(cmd.ErrOrStderr()))
			cat := classifier.Classify(cmd.Context(), name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", cat, tax.Theme(cat))
			return nil
		},
	}
}

func newSyncStatusCmd(e env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-status",
		Short: "Print how many locally stored records are pending, synced or failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := e.config()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			counts, err := e.syncCounts(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("read sync status: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tRECORDS")
			for _, st := range []storage.SyncStatus{storage.StatusPending, storage.StatusSynced, storage.StatusError} {
				fmt.Fprintf(tw, "%s\t%d\n", st, counts[st])
			}
			return tw.Flush()
		},
	}
}
