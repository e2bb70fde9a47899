package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"expenses/internal/cache"
	"expenses/internal/core"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/middleware/auth"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
)

// Ledger is what the API needs from the ledger controller.
type Ledger interface {
	Ready() bool
	Revision() uint64
	List() ([]core.Expense, error)
	Get(ctx context.Context, id string) (core.Expense, error)
	Add(ctx context.Context, d core.Draft) (core.Expense, error)
	Update(ctx context.Context, id string, d core.Draft) (core.Expense, error)
	Remove(ctx context.Context, id string) error
}

type Options struct {
	Logger             *applog.Logger
	Auth               *auth.Authenticator
	RateLimitPerMinute int
	SummaryCacheSize   int
	SummaryCacheTTL    time.Duration
}

type summaryKey struct {
	revision uint64
	top      int
}

type Server struct {
	http.Server
	ledger    Ledger
	logger    *applog.Logger
	validate  *validator.Validate
	limiter   *ratelimit.Limiter
	summaries *cache.LRUCache[summaryKey, summaryResponse]
	caches    *cache.Manager
	tracer    *trace.Middleware
}

func NewServer(addr string, l Ledger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Auth == nil {
		opts.Auth = auth.New("")
	}
	if opts.SummaryCacheSize <= 0 {
		opts.SummaryCacheSize = 32
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = 5 * time.Minute
	}

	s := &Server{
		ledger:    l,
		logger:    opts.Logger.WithComponent(applog.ComponentHTTP),
		validate:  newValidator(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		summaries: cache.NewLRUCache[summaryKey, summaryResponse](opts.SummaryCacheSize, opts.SummaryCacheTTL),
		caches:    cache.NewManager(opts.Logger.Logger),
	}
	s.caches.Register(s.summaries)
	s.caches.StartCleanup(time.Minute)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/expenses", s.handleListExpenses)
	api.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	api.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	api.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	api.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/meta", s.handleMeta)

	ips := security.NewClientIPResolver()

	var apiHandler http.Handler = api
	apiHandler = opts.Auth.Middleware(s.onUnauthorized)(apiHandler)
	apiHandler = s.limiter.Middleware(ips.ClientIP, ratelimit.MutatingOnly, s.onRateLimited)(apiHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", apiHandler)

	s.tracer = trace.NewMiddleware(opts.Logger, ips.ClientIP)
	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	if !opts.Auth.Enabled() {
		s.logger.Warn("API authentication disabled; set AUTH_JWT_SECRET to require bearer tokens")
	}
	return s
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	s.caches.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ledger.Ready() {
		ErrorResponse(http.StatusServiceUnavailable, "ledger not initialized").Write(w)
		return
	}
	NewJSONResponse().Body(map[string]any{"status": "ready", "revision": s.ledger.Revision()}).Write(w)
}

func (s *Server) onUnauthorized(w http.ResponseWriter, r *http.Request, err error) {
	applog.FromContext(r.Context()).Warn("Rejected unauthenticated request",
		applog.FieldError, err, applog.FieldErrorType, applog.ErrorTypeAuth)
	ErrorResponse(http.StatusUnauthorized, "authentication required").Write(w)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).Warn("Rate limit exceeded", applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

// respondError maps ledger errors onto HTTP statuses.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(fieldErrors(verr)).Write(w)
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("expense not found").Write(w)
	case errors.Is(err, ledger.ErrNotInitialized):
		ErrorResponse(http.StatusServiceUnavailable, "ledger not initialized").Write(w)
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed",
			err, applog.ErrorTypeInternal, r.Pattern, nil)
		InternalServerError("internal error").Write(w)
	}
}
