package services

import (
	"context"
	"log/slog"

	"expensedash/internal/aggregate"
	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/normalize"
	"expensedash/internal/sheets"
)

// Snapshot is one normalized fetch of the remote store.
type Snapshot struct {
	Records []core.ExpenseRecord
	Report  normalize.Report
	// NoData is set when the fetch failed or returned no usable rows.
	NoData bool
	// Err is the boundary failure, nil when the fetch succeeded.
	Err error
}

// Failure names the boundary failure kind, empty when the fetch succeeded.
func (s Snapshot) Failure() string {
	if s.Err == nil {
		return ""
	}
	return sheets.KindOf(s.Err).String()
}

// DashboardView is a dashboard together with the data-quality signals of
// the snapshot it was computed from.
type DashboardView struct {
	aggregate.Dashboard
	Report  normalize.Report `json:"report"`
	NoData  bool             `json:"noData"`
	Failure string           `json:"failure,omitempty"`
}

// Analytics runs fetch, normalize and aggregate for every query. Nothing
// is retained between calls beyond what the fetcher itself caches.
type Analytics struct {
	fetcher    sheets.RecordFetcher
	normalizer *normalize.Normalizer
	engine     *aggregate.Engine
	logger     *slog.Logger
}

func NewAnalytics(fetcher sheets.RecordFetcher, normalizer *normalize.Normalizer, engine *aggregate.Engine, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		fetcher:    fetcher,
		normalizer: normalizer,
		engine:     engine,
		logger:     logger,
	}
}

func (a *Analytics) Engine() *aggregate.Engine { return a.engine }

// Snapshot fetches and normalizes the full record set. A fetch failure is
// logged here once and surfaces only as NoData plus Err.
func (a *Analytics) Snapshot(ctx context.Context) Snapshot {
	raws, err := a.fetcher.FetchRecords(ctx)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to fetch records",
			applog.FieldFailure, sheets.KindOf(err).String(),
			applog.FieldError, err)
		return Snapshot{Records: []core.ExpenseRecord{}, NoData: true, Err: err}
	}

	res := a.normalizer.Normalize(raws)
	if n := len(res.Report.Rejections); n > 0 {
		a.logger.WarnContext(ctx, "Rejected malformed records",
			applog.FieldRejected, n,
			"total", res.Report.Total,
			"reasons", res.Report.Summary())
	}
	return Snapshot{
		Records: res.Records,
		Report:  res.Report,
		NoData:  len(res.Records) == 0,
	}
}

// Dashboard computes the combined view for f.
func (a *Analytics) Dashboard(ctx context.Context, f aggregate.Filter) DashboardView {
	snap := a.Snapshot(ctx)
	return DashboardView{
		Dashboard: a.engine.Dashboard(snap.Records, f),
		Report:    snap.Report,
		NoData:    snap.NoData,
		Failure:   snap.Failure(),
	}
}

// Summary computes one dimension's summary for f.
func (a *Analytics) Summary(ctx context.Context, f aggregate.Filter, dim aggregate.Dimension) (aggregate.Summary, Snapshot) {
	snap := a.Snapshot(ctx)
	return a.engine.Summary(snap.Records, f, dim), snap
}
