// Package httpserver provides the small HTTP surface this core exposes:
// health/readiness, Prometheus metrics, the Stripe webhook endpoint, and
// the property mutation endpoints of PropertiesHandler. Everything else
// (tenant dashboards, auth, CORS) belongs to the external frontend
// collaborator this core hands data to.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP dependencies for the worker's control surface.
type Server struct {
	Router    *chi.Mux
	logger    *slog.Logger
	startedAt time.Time
}

// PingFunc reports whether a dependency (database, redis) is reachable.
type PingFunc func(ctx context.Context) error

// NewServer builds an HTTP server with request logging, panic recovery,
// and /healthz, /readyz, /metrics mounted. Domain handlers (the Stripe
// webhook and the property endpoints) are mounted by the caller after
// construction.
func NewServer(logger *slog.Logger, metricsReg *prometheus.Registry, ready PingFunc) *Server {
	s := &Server{Router: chi.NewRouter(), logger: logger, startedAt: time.Now()}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(Logger(logger))
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.Router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				logger.Error("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	s.Router.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))

	return s
}

// Logger logs every request with method, path, status, and duration.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
