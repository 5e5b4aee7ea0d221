package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fundreq/internal/cache"
	"fundreq/internal/core"
	"fundreq/internal/middleware/ratelimit"
	"fundreq/internal/middleware/security"
	"fundreq/internal/middleware/trace"
	"fundreq/internal/services"
)

// Options tunes server behavior. Zero values fall back to defaults.
type Options struct {
	BudgetPerPersonCents int64
	BudgetMaxCents       int64
	RequestsPerMinute    int
}

// Server is the JSON API for funding requests.
type Server struct {
	http.Server

	svc      *services.FundingService
	limiter  *ratelimit.Limiter
	detector *security.Detector

	overviewCache *cache.LRU[core.FundingOverview]
	cacheManager  *cache.Manager

	perPersonCents int64
	maxBudgetCents int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, svc *services.FundingService, opts Options) *Server {
	perPerson := opts.BudgetPerPersonCents
	if perPerson <= 0 {
		perPerson = core.DefaultPerPersonCents
	}
	maxBudget := opts.BudgetMaxCents
	if maxBudget <= 0 {
		maxBudget = core.DefaultMaxBudgetCents
	}

	s := &Server{
		svc:            svc,
		detector:       security.NewDetector(),
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		overviewCache:  cache.NewLRU[core.FundingOverview](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
		perPersonCents: perPerson,
		maxBudgetCents: maxBudget,
	}
	s.cacheManager.Register(s.overviewCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/budget", s.handleBudget)
	mux.HandleFunc("POST /api/invoices/import", s.handleImportInvoice)
	mux.HandleFunc("POST /api/requests/validate", s.handleValidateRequest)
	mux.HandleFunc("POST /api/requests", s.handleSubmitRequest)
	mux.HandleFunc("GET /api/requests", s.handleListRequests)
	mux.HandleFunc("GET /api/requests/{id}", s.handleGetRequest)
	mux.HandleFunc("GET /api/overview", s.handleOverview)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.middleware(mux),
	}

	return s
}

// middleware builds the chain applied to every route: tracing, security
// headers, and rate limiting on writes.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.rateLimitWrites(next)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(h)
	return h
}

// rateLimitWrites applies the limiter to mutating requests only, so health
// probes and dashboard polling stay unthrottled.
func (s *Server) rateLimitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "Rate limit exceeded",
			"client_ip", s.detector.ExtractClientIP(r), "method", r.Method, "path", r.URL.Path)
		NewResponse().
			Status(http.StatusTooManyRequests).
			Header("Retry-After", "60").
			JSON(errorBody{Error: "rate limit exceeded, try again later"}).
			Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodDelete {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops background routines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
