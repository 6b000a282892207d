// Package server exposes the optimizer over HTTP.
//
// Routes:
//   - POST /api/optimize: sheets, pieces and settings in; layouts,
//     statistics and instructions out
//   - POST /api/compare: the same input run once per optimization mode
//   - GET /healthz
//
// Successful plans are cached by a hash of the normalized request. Client
// errors (validation, oversize pieces, malformed JSON) map to 400 with a
// {"code","detail"} body.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/piwi3910/cutplan/internal/cache"
	"github.com/piwi3910/cutplan/internal/model"
)

const maxBodyBytes = 1 << 20

// Server handles optimization requests.
type Server struct {
	defaults model.Settings
	cache    cache.Cache
	ttl      time.Duration
	logger   *log.Logger
}

// New creates a server. Settings missing from a request take defaults.
// A nil cache disables caching; a nil logger discards output.
func New(defaults model.Settings, c cache.Cache, ttl time.Duration, logger *log.Logger) *Server {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{defaults: defaults, cache: c, ttl: ttl, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Post("/compare", s.handleCompare)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

// requestLogger logs one line per request at debug level, errors at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if ww.Status() >= http.StatusBadRequest {
			s.logger.Warn("request", fields...)
			return
		}
		s.logger.Debug("request", fields...)
	})
}
