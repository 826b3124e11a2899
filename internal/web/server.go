// Package web provides the HTTP surface of serve mode: triggering runs,
// inspecting the run ledger and validating ad-hoc uploads.
package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/dataclean/internal/config"
	"github.com/JonMunkholm/dataclean/internal/core"
	"github.com/JonMunkholm/dataclean/internal/history"
	"github.com/JonMunkholm/dataclean/internal/json"
	"github.com/JonMunkholm/dataclean/internal/logging"
	"github.com/JonMunkholm/dataclean/internal/pipeline"
	"github.com/JonMunkholm/dataclean/internal/web/middleware"
)

// Server is the HTTP server for serve mode.
type Server struct {
	cfg       *config.Config
	runner    *pipeline.Runner
	limiter   *pipeline.RunLimiter
	ledger    history.Store
	validator *core.Validator
	router    *chi.Mux
	server    *http.Server

	rateLimiter *rateLimiter

	// runs outlive the request that triggered them
	runCtx    context.Context
	cancelRun context.CancelFunc
	runs      sync.WaitGroup
}

// NewServer creates a new Server instance.
func NewServer(cfg *config.Config, runner *pipeline.Runner, limiter *pipeline.RunLimiter, validator *core.Validator) *Server {
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		runner:    runner,
		limiter:   limiter,
		ledger:    runner.Ledger(),
		validator: validator,
		router:    chi.NewRouter(),
		runCtx:    runCtx,
		cancelRun: cancel,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)

	// Security hardening
	s.router.Use(securityHeaders)

	// Rate limiting: 100 requests per minute per IP. Cleanup stops with
	// Shutdown.
	s.rateLimiter = newRateLimiter(s.runCtx, 100, time.Minute)
	s.router.Use(s.rateLimiter.middleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/runs/{runID}", s.handleRunReport)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{runID}", s.handleGetRun)

		// Mutating routes require an API key when configured
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(&s.cfg.Security))
			r.Post("/runs", s.handleTriggerRun)
			r.Post("/validate", s.handleValidate)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logging.FromContext(context.Background()).Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for an active run to
// finish. When ctx expires first the run is cancelled and its finalizers
// still run before Shutdown returns.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	if drainErr := s.limiter.WaitForDrain(ctx); drainErr != nil {
		logging.FromContext(ctx).Warn("active run did not finish before shutdown, cancelling",
			"active", s.limiter.ActiveCount(),
		)
		err = errors.Join(err, drainErr)
	}
	s.cancelRun()
	s.runs.Wait()

	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// startRun admits and launches one run in the background.
func (s *Server) startRun() (string, error) {
	if err := s.limiter.TryAcquire(); err != nil {
		return "", err
	}

	runID := pipeline.NewRunID()
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.limiter.Release()
		// The runner records and logs the outcome.
		_, _ = s.runner.Run(s.runCtx, runID)
	}()
	return runID, nil
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		// The run report is self-contained: inline styles, no scripts
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "no-referrer")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a fixed-window request budget per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
	done     chan struct{} // closed when cleanup returns
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
// Stale visitors are pruned until ctx is cancelled.
func newRateLimiter(ctx context.Context, rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanup(ctx)
	return rl
}

// cleanup prunes stale visitor entries every window until ctx is done.
func (rl *rateLimiter) cleanup(ctx context.Context) {
	defer close(rl.done)
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

// prune drops visitors idle for more than two windows.
func (rl *rateLimiter) prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, v := range rl.visitors {
		if rl.now().Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, ip)
		}
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}

	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by client IP.
// RemoteAddr has already been resolved by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(middleware.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
				Error:   "rate limit exceeded",
				Message: "Too many requests",
				Action:  "Wait a minute and try again",
				Code:    "HTTP429",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(context.Background()).Error("json encode error", "error", err)
		http.Error(w, `{"error":"internal error","code":"ERR000"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logging.FromContext(context.Background()).Debug("response write failed", "error", err)
	}
}
