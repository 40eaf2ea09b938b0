package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"expensedash/internal/calendar"
	applog "expensedash/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTTL)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.deps.Pinger == nil {
		checks["backend"] = "not_checked"
	} else if err := s.deps.Pinger.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		checks["backend"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["backend"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Data(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerContentType, contentTypePlain)

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	metrics := []struct {
		name, help, kind string
		value            float64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", float64(traceMetrics.TotalRequests)},
		{"expenses_submitted_total", "Expenses persisted through the API", "counter", float64(atomic.LoadInt64(&s.appMetrics.submissions))},
		{"expense_submit_failures_total", "Rejected or failed submissions", "counter", float64(atomic.LoadInt64(&s.appMetrics.submitFailures))},
		{"classifications_total", "Category classification requests", "counter", float64(atomic.LoadInt64(&s.appMetrics.classifications))},
		{"dashboard_queries_total", "Dashboard, summary, trend and export queries", "counter", float64(atomic.LoadInt64(&s.appMetrics.dashboardQueries))},
		{"rate_limit_hits_total", "Total rate limit hits", "counter", float64(rateLimitMetrics.TotalHits)},
		{"active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", float64(rateLimitMetrics.ClientCount)},
		{"uptime_seconds", "Application uptime in seconds", "gauge", time.Since(s.appMetrics.uptime).Seconds()},
	}

	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %.0f\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}

type categoryView struct {
	Name  string `json:"name"`
	Theme string `json:"theme"`
}

type paymentMethodView struct {
	Name       string `json:"name"`
	CreditCard bool   `json:"creditCard"`
}

// handleTaxonomy lists the configured categories and payment methods, the
// choices a submission form offers.
func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	tax := s.deps.Taxonomy
	cats := tax.Categories()
	methods := tax.PaymentMethods()

	out := struct {
		Name                  string              `json:"name"`
		Categories            []categoryView      `json:"categories"`
		PaymentMethods        []paymentMethodView `json:"paymentMethods"`
		FallbackPaymentMethod string              `json:"fallbackPaymentMethod"`
	}{
		Name:                  tax.Name(),
		Categories:            make([]categoryView, 0, len(cats)),
		PaymentMethods:        make([]paymentMethodView, 0, len(methods)),
		FallbackPaymentMethod: string(tax.FallbackPaymentMethod()),
	}
	for _, c := range cats {
		out.Categories = append(out.Categories, categoryView{Name: string(c), Theme: string(tax.Theme(c))})
	}
	for _, m := range methods {
		out.PaymentMethods = append(out.PaymentMethods, paymentMethodView{Name: string(m), CreditCard: tax.IsCreditCard(m)})
	}

	NewJSONResponse().Header("Cache-Control", "public, max-age=300").Data(out).Write(w)
}

// handleBillingCycle reports the billing cycle and week bucket of ?date=.
func (s *Server) handleBillingCycle(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		BadRequestError("date query parameter is required (YYYY-MM-DD)").Write(w)
		return
	}
	d, err := parseDate(raw, s.location)
	if err != nil {
		BadRequestError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw)).Write(w)
		return
	}

	cycle := calendar.BillingCycleFor(d)
	NewJSONResponse().Data(map[string]string{
		"date":         d.Format(isoDateLayout),
		"billingCycle": cycle.Label(),
		"cycleStart":   cycle.Start.Format(isoDateLayout),
		"cycleEnd":     cycle.End.Format(isoDateLayout),
		"week":         calendar.WeekBucketFor(d).Label(),
		"period":       calendar.PeriodLabel(d.Year(), d.Month()),
	}).Write(w)
}

// handleClassify predicts a category for {"name": "..."}. Prediction
// failures have already fallen back to the default category.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	name := p.Get("name", "expenseName")
	if name == "" {
		FieldError("name", "name is required").Write(w)
		return
	}

	atomic.AddInt64(&s.appMetrics.classifications, 1)
	cat := s.deps.Classifier.Classify(r.Context(), name)

	applog.FromContext(r.Context()).DebugContext(r.Context(), "Classified expense name",
		applog.FieldOperation, applog.OpClassify,
		applog.FieldCategory, cat)

	NewJSONResponse().Data(map[string]string{
		"name":     name,
		"category": string(cat),
		"theme":    string(s.deps.Taxonomy.Theme(cat)),
	}).Write(w)
}
