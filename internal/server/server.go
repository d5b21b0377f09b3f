package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/db"
	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/results"
	"github.com/jonathan/talent-scout/internal/server/ratelimit"
	"github.com/jonathan/talent-scout/internal/types"
)

// RunFunc executes the pipeline over a company list. It returns an error only
// when the run could not start at all (for example the browser failed to launch).
type RunFunc func(ctx context.Context, companies []string) ([]types.CompanyResult, error)

// RunSink persists finished runs. Optional.
type RunSink interface {
	SaveRun(ctx context.Context, run db.Run, results []types.CompanyResult) error
}

// Config holds server configuration
type Config struct {
	Port                int
	StaticDir           string
	UploadRatePerMinute int
	KeepAlive           time.Duration // interval for SSE comments; 0 disables
	MaxUploadBytes      int64
}

// Deps are the collaborators the handlers drive.
type Deps struct {
	Broker  *events.Broker
	Results *results.Store
	Run     RunFunc
	Sink    RunSink
	// BaseContext parents every run; cancelling it cancels in-flight runs.
	BaseContext context.Context
}

const defaultMaxUploadBytes = 10 << 20

// Server represents the HTTP server
type Server struct {
	cfg         Config
	broker      *events.Broker
	results     *results.Store
	run         RunFunc
	sink        RunSink
	baseCtx     context.Context
	rateLimiter *ratelimit.Limiter
	running     sync.Mutex
	router      chi.Router
	httpServer  *http.Server
}

// New creates a new server instance
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Broker == nil || deps.Results == nil || deps.Run == nil {
		return nil, fmt.Errorf("server requires a broker, results store and run func")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	base := deps.BaseContext
	if base == nil {
		base = context.Background()
	}

	s := &Server{
		cfg:         cfg,
		broker:      deps.Broker,
		results:     deps.Results,
		run:         deps.Run,
		sink:        deps.Sink,
		baseCtx:     base,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig(cfg.UploadRatePerMinute)),
	}
	s.router = s.routes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No write timeout: uploads block for the whole run and /status streams.
	}
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.withLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.withRateLimit)

	r.Post("/upload", s.handleUpload)
	r.Get("/status", s.handleStatus)
	r.Get("/download/{file}", s.handleDownload)
	r.Get("/health", s.handleHealth)

	if s.cfg.StaticDir != "" {
		if info, err := os.Stat(s.cfg.StaticDir); err == nil && info.IsDir() {
			r.Handle("/*", http.FileServer(http.Dir(s.cfg.StaticDir)))
		} else {
			zap.L().Warn("static directory not found, front-end disabled", zap.String("dir", s.cfg.StaticDir))
		}
	}
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.rateLimiter.Stop()
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer s.rateLimiter.Stop()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	zap.L().Info("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !allowed {
			retry := int(info.RetryAfter.Round(time.Second).Seconds())
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			zap.L().Warn("rate limit exceeded",
				zap.String("path", r.URL.Path),
				zap.Int("limit", info.Limit),
				zap.Int("retry_after", retry),
			)
			s.errorResponse(w, &ErrRateLimited{RetryAfterSeconds: retry})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the remote IP; forwarded headers are not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes err with the status HTTPStatus maps it to.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), map[string]any{
		"success": false,
		"error":   err.Error(),
	})
}
