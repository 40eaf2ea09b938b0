package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"expensedash/internal/aggregate"
	"expensedash/internal/core"
	applog "expensedash/internal/log"
	"expensedash/internal/middleware/ratelimit"
	"expensedash/internal/middleware/security"
	"expensedash/internal/middleware/trace"
	"expensedash/internal/services"
	"expensedash/internal/taxonomy"
)

// Submitter persists form submissions.
type Submitter interface {
	Submit(ctx context.Context, sub services.Submission) (services.SubmitResult, error)
}

// Analyzer answers dashboard and trend queries.
type Analyzer interface {
	Snapshot(ctx context.Context) services.Snapshot
	Dashboard(ctx context.Context, f aggregate.Filter) services.DashboardView
	Summary(ctx context.Context, f aggregate.Filter, dim aggregate.Dimension) (aggregate.Summary, services.Snapshot)
	Engine() *aggregate.Engine
}

// Classifier maps a free-text expense name onto a category.
type Classifier interface {
	Classify(ctx context.Context, name string) core.Category
}

// Pinger is implemented by backends with a cheap reachability check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers call. Pinger is optional.
type Deps struct {
	Taxonomy   *taxonomy.Taxonomy
	Records    Submitter
	Analytics  Analyzer
	Classifier Classifier
	Pinger     Pinger
}

// Config tunes the server. Zero values get defaults.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	ReadyTimeout       time.Duration
	Location           *time.Location
	Logger             *applog.Logger
}

// appMetrics tracks application-specific counters.
type appMetrics struct {
	submissions      int64
	submitFailures   int64
	classifications  int64
	dashboardQueries int64
	uptime           time.Time
}

type Server struct {
	http.Server
	deps     Deps
	logger   *applog.Logger
	location *time.Location
	readyTTL time.Duration

	rateLimiter     *ratelimit.Limiter
	traceMiddleware *trace.Middleware
	clientIP        *security.ClientIPResolver
	appMetrics      *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	readyTTL := cfg.ReadyTimeout
	if readyTTL <= 0 {
		readyTTL = 5 * time.Second
	}

	clientIP := security.NewClientIPResolver()
	s := &Server{
		deps:            deps,
		logger:          logger,
		location:        loc,
		readyTTL:        readyTTL,
		rateLimiter:     ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		traceMiddleware: trace.NewMiddleware(clientIP.ClientIP),
		clientIP:        clientIP,
		appMetrics:      &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()
	limited := s.rateLimiter.Middleware(clientIP.ClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/taxonomy", s.handleTaxonomy)
	mux.HandleFunc("GET /api/billing-cycle", s.handleBillingCycle)
	mux.Handle("POST /api/expenses", limited(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("POST /api/classify", limited(http.HandlerFunc(s.handleClassify)))

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/summary/{dimension}", s.handleSummary)
	mux.HandleFunc("GET /api/trends/weekly", s.handleWeeklyTrends)
	mux.HandleFunc("GET /api/trends/monthly", s.handleMonthlyTrends)
	mux.HandleFunc("GET /api/export.csv", s.handleExport)

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.clientIP.ClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe treats a graceful shutdown as a clean exit.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) countSubmission(ok bool) {
	if ok {
		atomic.AddInt64(&s.appMetrics.submissions, 1)
		return
	}
	atomic.AddInt64(&s.appMetrics.submitFailures, 1)
}
