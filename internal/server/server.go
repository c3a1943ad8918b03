// Package server exposes measurement data over HTTP while a benchmark
// run is in progress: Prometheus metrics on /metrics, the current report
// as JSON on /report and a liveness probe on /healthz.
package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdinklag/pm/internal/logging"
	"github.com/pdinklag/pm/prom"
)

// Config holds the HTTP server configuration.
type Config struct {
	// ListenAddr is the address to listen on, e.g. "localhost:9090".
	ListenAddr string
	// ReadTimeout bounds reading a request including the body.
	ReadTimeout time.Duration
	// ShutdownTimeout bounds the graceful shutdown after cancellation.
	ShutdownTimeout time.Duration
	// Security configures response hardening and CORS.
	Security SecurityConfig
}

// DefaultConfig returns the server configuration used unless overridden.
func DefaultConfig(listenAddr string) Config {
	return Config{
		ListenAddr:      listenAddr,
		ReadTimeout:     10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Security:        DefaultSecurityConfig(),
	}
}

// Server serves the measurement endpoints for one benchmark run.
type Server struct {
	config  Config
	metrics *Metrics
	logger  logging.Logger
	source  prom.ReportSource
}

// New creates a server reading reports from the given source. The source
// is queried on every /report request and Prometheus scrape, so a live
// phase exposes its current state.
func New(config Config, source prom.ReportSource, logger logging.Logger) *Server {
	return &Server{
		config:  config,
		metrics: NewMetrics(),
		logger:  logger,
		source:  source,
	}
}

// Metrics returns the server's metrics registry wrapper, so callers can
// register additional collectors before the server starts.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves until ctx is canceled, then shuts down gracefully. Returns
// nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.wrap(s.handleMetrics))
	mux.HandleFunc("/report", s.wrap(s.handleReport))
	mux.HandleFunc("/healthz", s.wrap(s.handleHealth))

	httpSrv := &http.Server{
		Addr:        s.config.ListenAddr,
		Handler:     mux,
		ReadTimeout: s.config.ReadTimeout,
	}

	s.logger.Info("metrics server listening", logging.String("addr", s.config.ListenAddr))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if err != nil {
		s.logger.Error("metrics server failed", err)
		return err
	}
	s.logger.Info("metrics server stopped")
	return nil
}

// wrap applies the middleware chain shared by all endpoints.
func (s *Server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return SecurityMiddleware(s.config.Security, s.metricsMiddleware(h))
}

// metricsMiddleware tracks in-flight and total requests around a handler.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()
		s.metrics.CountRequest(r.URL.Path)
		next(w, r)
	}
}

// handleMetrics serves the Prometheus exposition endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	s.metrics.WritePrometheus(w, r)
}

// handleReport serves the current measurement report as JSON.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.source == nil {
		http.Error(w, "no report available", http.StatusServiceUnavailable)
		return
	}

	data, err := s.source.Report().MarshalIndent()
	if err != nil {
		s.logger.Error("report encoding failed", err)
		http.Error(w, "report encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}

// handleHealth serves the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("method not allowed",
		logging.String("method", r.Method),
		logging.String("path", r.URL.Path))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
