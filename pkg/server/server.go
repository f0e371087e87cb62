package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/pi3123/SmartDashcam/pkg/config"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/health"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/metrics"
	"github.com/pi3123/SmartDashcam/pkg/telemetry/tracing"
)

// Options carries the optional collaborators of the server.
type Options struct {
	// Checker backs /health and /ready. A nil Checker has no checks.
	Checker *health.Checker

	// Metrics is served at MetricsPath when non-nil.
	Metrics     *metrics.Collector
	MetricsPath string

	// DefaultWindowMinutes is used when an export request omits its window.
	DefaultWindowMinutes float64

	Version   string
	GitCommit string
	BuildDate string
}

// Server is the admin HTTP server.
type Server struct {
	config       *config.ServerConfig
	recorder     Recorder
	options      Options
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates an admin server for rec.
func NewServer(cfg *config.ServerConfig, rec Recorder, opts Options) *Server {
	if opts.Checker == nil {
		opts.Checker = health.New(0)
	}
	if opts.MetricsPath == "" {
		opts.MetricsPath = config.DefaultMetricsPath
	}
	if opts.DefaultWindowMinutes <= 0 {
		opts.DefaultWindowMinutes = config.DefaultWindowMinutes
	}
	return &Server{
		config:   cfg,
		recorder: rec,
		options:  opts,
		logger:   slog.Default().With("component", "server"),
	}
}

// Start serves until ctx is cancelled or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.addr = listener.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting admin server", "address", listener.Addr().String())
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown gracefully shuts down the server within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running := s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("admin server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler with its middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.options.Checker.LivenessHandler())
	mux.HandleFunc("/ready", s.options.Checker.ReadinessHandler())
	mux.HandleFunc("GET /version", health.VersionHandler(s.options.Version, s.options.GitCommit, s.options.BuildDate))
	if s.options.Metrics != nil {
		mux.Handle("GET "+s.options.MetricsPath, s.options.Metrics.Handler())
	}

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/exports", s.handleJobs)
	mux.HandleFunc("POST /api/v1/export", s.handleExport)
	mux.HandleFunc("POST /api/v1/clear", s.handleClear)

	var handler http.Handler = mux
	handler = tracing.HTTPMiddleware(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	return handler
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listen address once started.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
