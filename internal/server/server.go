// Package server exposes the dashboard, repository analysis and organization
// stats over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/github-dashboard/internal/domain"
	"github.com/naka-gawa/github-dashboard/internal/report"
	"github.com/naka-gawa/github-dashboard/internal/usecase"
	"github.com/naka-gawa/github-dashboard/internal/view"
)

// Options configures a Server.
type Options struct {
	Session  domain.Session
	PageSize int
	CacheTTL time.Duration
}

// Server serves the dashboard API for a single session user.
type Server struct {
	dashboard  *usecase.DashboardBuilder
	analyzer   *usecase.Analyzer
	aggregator *usecase.Aggregator
	reports    *report.Templates
	metrics    *Metrics
	cache      *snapshotCache
	session    domain.Session
	pageSize   int
	logger     logrus.FieldLogger
}

// New creates a new Server instance.
func New(
	dashboard *usecase.DashboardBuilder,
	analyzer *usecase.Analyzer,
	aggregator *usecase.Aggregator,
	reports *report.Templates,
	metrics *Metrics,
	opts Options,
	logger logrus.FieldLogger,
) *Server {
	pageSize := opts.PageSize
	if pageSize < 0 {
		pageSize = view.DefaultPageSize
	}
	return &Server{
		dashboard:  dashboard,
		analyzer:   analyzer,
		aggregator: aggregator,
		reports:    reports,
		metrics:    metrics,
		cache:      newSnapshotCache(opts.CacheTTL),
		session:    opts.Session,
		pageSize:   pageSize,
		logger:     logger.WithField("component", "server"),
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/analysis/{owner}/{repo}", s.handleAnalysis)
		r.Get("/analysis/{owner}/{repo}/report/{format}", s.handleAnalysisReport)
		r.Get("/organizations/{org}/stats", s.handleOrganizationStats)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Debug("handled request")
	})
}
