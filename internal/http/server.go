package http

import (
	"context"
	"iter"
	"net/http"
	"sync"
	"time"

	"budgetx/internal/core"
	applog "budgetx/internal/log"
	"budgetx/internal/middleware/ratelimit"
	"budgetx/internal/middleware/security"
	"budgetx/internal/middleware/trace"
	"budgetx/internal/services"
)

// ReceiptParser extracts a structured expense from a base64 image.
type ReceiptParser interface {
	Parse(ctx context.Context, image, mimeType string) (core.ParsedReceipt, error)
}

// Advisor streams an answer to a what-if question.
type Advisor interface {
	Stream(ctx context.Context, question, budgetContext string) (iter.Seq2[string, error], error)
}

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Budget is required; everything else may be
// left empty.
type Options struct {
	Addr      string
	Budget    *services.BudgetService
	Receipts  ReceiptParser
	Advisor   Advisor
	Storage   Pinger
	Logger    *applog.Logger
	RateLimit ratelimit.Config
	// TrustedProxies are CIDRs, beyond the private ranges, whose
	// X-Forwarded-For header is believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	budget   *services.BudgetService
	receipts ReceiptParser
	advisor  Advisor
	storage  Pinger
	logger   *applog.Logger

	limiter   *ratelimit.Limiter
	detector  *security.Detector
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer registers the JSON API and returns a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentHTTP)
	}

	s := &Server{
		budget:   opts.Budget,
		receipts: opts.Receipts,
		advisor:  opts.Advisor,
		storage:  opts.Storage,
		logger:   logger,
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/entries", s.handleCreateEntry)
	mux.HandleFunc("PUT /api/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	mux.HandleFunc("POST /api/entries/receipt", s.handleCreateReceiptEntry)

	mux.HandleFunc("GET /api/history", s.handleListHistory)
	mux.HandleFunc("POST /api/history", s.handleAppendSnapshot)
	mux.HandleFunc("DELETE /api/state", s.handleReset)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	mux.HandleFunc("POST /api/receipt", s.handleParseReceipt)
	mux.HandleFunc("POST /api/simulator", s.handleSimulator)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, isMutating, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeError(w, http.StatusTooManyRequests, msgRateLimited)
	})

	var handler http.Handler = mux
	handler = limited(handler)
	handler = s.withDetection(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Advice streams clear their own deadline.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// withDetection logs requests that look like probes. They are still served.
func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.UserAgent(),
				"suspicious_total", s.detector.SuspiciousRequests())
		}
		next.ServeHTTP(w, r)
	})
}

func isMutating(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Shutdown stops the rate limiter sweep and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
