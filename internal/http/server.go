package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"budgetui/internal/budgetapi"
	"budgetui/internal/convention"
	applog "budgetui/internal/log"
	"budgetui/internal/metrics"
	"budgetui/internal/middleware/ratelimit"
	"budgetui/internal/middleware/security"
	"budgetui/internal/middleware/trace"
	"budgetui/internal/ui"
	appweb "budgetui/web"
)

// Server serves the budget page and the htmx partials that drive it.
type Server struct {
	http.Server
	templates *template.Template
	api       budgetapi.API
	dates     convention.Adapter
	echo      ui.ReportEcho
	logger    *applog.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	headers   security.HeadersConfig
	rateCfg   ratelimit.Config
	now       func() time.Time
	started   time.Time

	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithConvention sets the month/date convention used by every request.
func WithConvention(a convention.Adapter) Option {
	return func(s *Server) {
		if a != nil {
			s.dates = a
		}
	}
}

// WithReportEcho selects which month the report header shows.
func WithReportEcho(e ui.ReportEcho) Option {
	return func(s *Server) { s.echo = e }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimit configures the per-client limiter applied to POSTs.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.rateCfg = cfg }
}

func WithSecurityHeaders(cfg security.HeadersConfig) Option {
	return func(s *Server) { s.headers = cfg }
}

// WithClock sets the clock used for the default transaction date.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, api budgetapi.API, opts ...Option) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		api:     api,
		dates:   convention.MonthYear{},
		echo:    ui.EchoInput,
		logger:  applog.Discard(),
		headers: security.DefaultHeadersConfig(),
		rateCfg: ratelimit.DefaultConfig(),
		now:     time.Now,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)
	s.limiter = ratelimit.NewLimiter(s.rateCfg)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
	}
	s.templates = t

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err.Error())
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", s.metrics.Handler())

	// UI partials
	mux.Handle("/ui/budget-row", security.NoStore(http.HandlerFunc(s.handleBudgetRow)))
	mux.Handle("/ui/budget", security.NoStore(http.HandlerFunc(s.handleSaveBudget)))
	mux.Handle("/ui/month", security.NoStore(http.HandlerFunc(s.handleMonthChanged)))
	mux.Handle("/ui/transactions", security.NoStore(http.HandlerFunc(s.handleTransactions)))
	mux.Handle("/ui/report", security.NoStore(http.HandlerFunc(s.handleReport)))

	limited := s.limiter.Middleware(extractClientIP, ratelimit.WritesOnly, s.rateLimited)(mux)
	secured := security.NewHeadersMiddleware(s.headers).Middleware(limited)
	traced := trace.NewMiddleware(s.logger, extractClientIP, s.metrics).Middleware(secured)
	s.Handler = otelhttp.NewHandler(traced, "budget-ui")

	return s
}

// Shutdown gracefully shuts down the server and the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// controller binds a fresh controller to page for the current request.
func (s *Server) controller(r *http.Request, page *ui.Page) (*ui.Controller, error) {
	return ui.New(page, s.api,
		ui.WithConvention(s.dates),
		ui.WithReportEcho(s.echo),
		ui.WithLogger(applog.FromContext(r.Context())),
		ui.WithRecorder(s.metrics),
		ui.WithClock(s.now),
	)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordRateLimited()
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, extractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests. Please slow down.").Write(w)
}
