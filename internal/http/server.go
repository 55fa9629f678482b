// Package http exposes the pipeline forecast and the deal board as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"pipeline/internal/cache"
	"pipeline/internal/core"
	applog "pipeline/internal/log"
	"pipeline/internal/middleware/ratelimit"
	"pipeline/internal/middleware/security"
	"pipeline/internal/middleware/trace"
)

// Pipeline is the forecast service behind the /pipeline routes.
type Pipeline interface {
	LoadUpload(ctx context.Context, name string, data []byte) (*cache.Batch, bool, error)
	Reload(ctx context.Context) (*cache.Batch, error)
	HasSource() bool
	Clear()
	Current() (*cache.Batch, error)
	Summary(ctx context.Context) (core.Summary, *cache.Batch, error)
	SummaryOf(b *cache.Batch) core.Summary
	Search(ctx context.Context, query string) ([]core.Opportunity, *cache.Batch, error)
	Options(ctx context.Context) core.Options
	Imports(ctx context.Context, limit int) ([]core.ImportRecord, error)
}

// Deals is the deal board service behind the /deals routes.
type Deals interface {
	Create(ctx context.Context, d core.Deal) (core.Deal, error)
	Board(ctx context.Context) (map[string][]core.Deal, error)
	Advance(ctx context.Context, id int64) (core.Deal, error)
	Delete(ctx context.Context, id int64) error
}

// Pinger reports whether a dependency is ready to serve.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires a Server.
type Options struct {
	Addr     string
	Pipeline Pipeline
	Deals    Deals
	// Ready is checked by /readyz. Nil means always ready.
	Ready          Pinger
	MaxUploadBytes int64
	RateLimit      ratelimit.Config
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	pipeline       Pipeline
	deals          Deals
	ready          Pinger
	maxUploadBytes int64

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	logger       *applog.Logger
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}

	s := &Server{
		pipeline:       opts.Pipeline,
		deals:          opts.Deals,
		ready:          opts.Ready,
		maxUploadBytes: maxUpload,
		limiter:        ratelimit.NewLimiter(opts.RateLimit),
		detector:       security.NewDetector(),
		logger:         logger.WithComponent(applog.ComponentHTTP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /pipeline/upload", s.handleUpload)
	mux.HandleFunc("POST /pipeline/reload", s.handleReload)
	mux.HandleFunc("DELETE /pipeline", s.handleClear)
	mux.HandleFunc("GET /pipeline", s.handleCurrent)
	mux.HandleFunc("GET /pipeline/summary", s.handleSummary)
	mux.HandleFunc("GET /pipeline/records", s.handleRecords)
	mux.HandleFunc("GET /pipeline/options", s.handleOptions)
	mux.HandleFunc("GET /pipeline/imports", s.handleImports)

	mux.HandleFunc("GET /deals", s.handleListDeals)
	mux.HandleFunc("POST /deals", s.handleCreateDeal)
	mux.HandleFunc("POST /deals/{id}/advance", s.handleAdvanceDeal)
	mux.HandleFunc("DELETE /deals/{id}", s.handleDeleteDeal)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.withDetection(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(logger, s.detector.ExtractClientIP).Middleware(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withDetection logs suspicious requests; they are still served.
func (s *Server) withDetection(next http.Handler) http.Handler {
	log := s.logger.WithComponent(applog.ComponentSecurity)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.WarnContext(r.Context(), "Suspicious request",
				applog.NewFields().
					WithRequestID(trace.GetRequestID(r.Context())).
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
					WithClientIP(s.detector.ExtractClientIP(r)).
					ToSlice()...)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, try again later"})
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err.Error())
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
