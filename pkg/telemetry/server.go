package telemetry

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"latent-hq/callisto/pkg/telemetry/health"
	"latent-hq/callisto/pkg/telemetry/tracing"
)

const (
	serverReadTimeout  = 10 * time.Second
	serverWriteTimeout = 30 * time.Second
	serverIdleTimeout  = 60 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// Server exposes the metrics and health endpoints on a standalone
// listener. The host process decides whether to run it; a process with
// an existing HTTP server can mount Handler() on its own mux instead.
type Server struct {
	tel          *Telemetry
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a telemetry server. The listen port comes from
// telemetry.metrics.port; port 0 binds an ephemeral port.
func NewServer(tel *Telemetry) *Server {
	return &Server{tel: tel}
}

// Start binds the listener and begins serving in the background.
// Bind failures are returned synchronously.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("telemetry server is already running")
	}

	addr := fmt.Sprintf(":%d", s.tel.config.Metrics.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to bind telemetry listener: %w", err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.setupRoutes(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}
	s.isRunning = true
	s.mu.Unlock()

	go func() {
		s.tel.logger.Info("telemetry server listening",
			"address", ln.Addr().String(),
			"metrics_enabled", s.tel.config.Metrics.Enabled,
			"health_enabled", s.tel.config.Health.Enabled,
		)

		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.tel.logger.Error("telemetry server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.tel.logger.Error("error during telemetry server shutdown", "error", err)
				shutdownErr = fmt.Errorf("telemetry server shutdown: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.tel.logger.Info("telemetry server stopped")
	})

	return shutdownErr
}

// setupRoutes mounts the configured endpoints and wraps the mux in the
// trace propagation middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	cfg := s.tel.config

	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.tel.collector.Handler())
	}

	if cfg.Health.Enabled {
		health.RegisterEndpoints(mux, s.tel.checker, &cfg.Health,
			s.tel.version, s.tel.commit, s.tel.buildTime)
	}

	return tracing.HTTPMiddleware(mux)
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the configured HTTP handler for mounting on an
// existing mux.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
