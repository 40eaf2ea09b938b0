package http

import (
	"bytes"
	"fmt"
	"net/http"
	"sync/atomic"

	"expensedash/internal/aggregate"
	applog "expensedash/internal/log"
	"expensedash/internal/report"
	"expensedash/internal/services"
)

// queryMeta rides along with every analytics response so clients can tell
// "nothing matched" from "the remote store failed".
type queryMeta struct {
	Filter  aggregate.Filter `json:"filter"`
	NoData  bool             `json:"noData"`
	Failure string           `json:"failure,omitempty"`
}

func metaOf(f aggregate.Filter, snap services.Snapshot) queryMeta {
	return queryMeta{
		Filter:  f,
		NoData:  snap.NoData || len(f.Apply(snap.Records)) == 0,
		Failure: snap.Failure(),
	}
}

// beginQuery parses the filter and counts the query. It writes the error
// response itself and reports false when the request is malformed.
func (s *Server) beginQuery(w http.ResponseWriter, r *http.Request, op string) (aggregate.Filter, bool) {
	f, err := parseFilter(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return f, false
	}
	atomic.AddInt64(&s.appMetrics.dashboardQueries, 1)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Analytics query",
		applog.FieldOperation, op,
		applog.FieldFilter, f.String())
	return f, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f, ok := s.beginQuery(w, r, applog.OpDashboard)
	if !ok {
		return
	}
	view := s.deps.Analytics.Dashboard(r.Context(), f)
	// The snapshot may have rows while the filter matches none of them.
	view.NoData = view.NoData || view.Count == 0
	NewJSONResponse().Header("Cache-Control", "no-store").Data(view).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dim, err := aggregate.ParseDimension(r.PathValue("dimension"))
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}
	f, ok := s.beginQuery(w, r, applog.OpSummary)
	if !ok {
		return
	}

	sum, snap := s.deps.Analytics.Summary(r.Context(), f, dim)
	NewJSONResponse().Header("Cache-Control", "no-store").Data(struct {
		queryMeta
		Dimension aggregate.Dimension `json:"dimension"`
		Summary   aggregate.Summary   `json:"summary"`
	}{metaOf(f, snap), dim, sum}).Write(w)
}

func (s *Server) handleWeeklyTrends(w http.ResponseWriter, r *http.Request) {
	f, ok := s.beginQuery(w, r, applog.OpTrends)
	if !ok {
		return
	}

	snap := s.deps.Analytics.Snapshot(r.Context())
	NewJSONResponse().Header("Cache-Control", "no-store").Data(struct {
		queryMeta
		Rows []aggregate.WeeklyRow `json:"rows"`
	}{metaOf(f, snap), nonNil(aggregate.WeeklyWithinMonth(snap.Records, f))}).Write(w)
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	f, ok := s.beginQuery(w, r, applog.OpTrends)
	if !ok {
		return
	}

	snap := s.deps.Analytics.Snapshot(r.Context())
	NewJSONResponse().Header("Cache-Control", "no-store").Data(struct {
		queryMeta
		Rows  []aggregate.MonthlyRow `json:"rows"`
		Pivot aggregate.Pivot        `json:"pivot"`
	}{
		metaOf(f, snap),
		nonNil(aggregate.MonthlyWithinYear(snap.Records, f)),
		aggregate.PivotMonthly(snap.Records, f),
	}).Write(w)
}

// handleExport streams CSV: ?kind=records (default), summary (with
// ?dimension=) or pivot. A failed fetch is 503 rather than an empty file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, ok := s.beginQuery(w, r, applog.OpExport)
	if !ok {
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "records"
	}

	var dim aggregate.Dimension
	if kind == "summary" {
		d := r.URL.Query().Get("dimension")
		if d == "" {
			d = string(aggregate.ByCategory)
		}
		var err error
		if dim, err = aggregate.ParseDimension(d); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
	} else if kind != "records" && kind != "pivot" {
		BadRequestError(fmt.Sprintf("unknown export kind %q", kind)).Write(w)
		return
	}

	snap := s.deps.Analytics.Snapshot(r.Context())
	if snap.Err != nil {
		ServiceUnavailableError(CodeUnavailable, "records could not be fetched ("+snap.Failure()+" error)").Write(w)
		return
	}

	var buf bytes.Buffer
	var err error
	switch kind {
	case "summary":
		err = report.WriteSummaryCSV(&buf, s.deps.Analytics.Engine().Summary(snap.Records, f, dim))
	case "pivot":
		err = report.WritePivotCSV(&buf, aggregate.PivotMonthly(snap.Records, f))
	default:
		err = report.WriteRecordsCSV(&buf, f.Apply(snap.Records), s.deps.Taxonomy)
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			applog.FieldOperation, applog.OpExport,
			applog.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}

	w.Header().Set(headerContentType, contentTypeCSV)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="expenses-%s.csv"`, kind))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
