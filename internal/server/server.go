// Package server exposes the parser and the document store over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shapestone/shape-csvchunk/internal/config"
	"github.com/shapestone/shape-csvchunk/internal/ingest"
	"github.com/shapestone/shape-csvchunk/internal/logging"
	"github.com/shapestone/shape-csvchunk/internal/metrics"
)

// Server is the HTTP API.
type Server struct {
	svc     *ingest.Service
	metrics *metrics.Collector
	cfg     config.ServerConfig
	router  *chi.Mux
	logger  *slog.Logger
}

// New builds the router. collector may be nil; the metrics endpoint is
// mounted at metricsPath only when it is enabled.
func New(svc *ingest.Service, collector *metrics.Collector, cfg config.ServerConfig, metricsPath string) *Server {
	s := &Server{
		svc:     svc,
		metrics: collector,
		cfg:     cfg,
		router:  chi.NewRouter(),
		logger:  slog.Default().With("component", "server"),
	}
	s.setupMiddleware()
	s.setupRoutes(metricsPath)
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes(metricsPath string) {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics.Enabled() && metricsPath != "" {
		s.router.Method(http.MethodGet, metricsPath, s.metrics.Handler())
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/parse", s.handleParse)
		r.Post("/tokenize", s.handleTokenize)
		r.Post("/sniff", s.handleSniff)

		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
	})
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.ListenAddress,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.ListenAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request and records it by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(route, r.Method, status, duration)

		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
			"ip", r.RemoteAddr,
		)
	})
}
