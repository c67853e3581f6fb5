// Package http wraps a gin.Engine in a net/http.Server with graceful
// shutdown, exposing CultureMech's read-only query surface (corpus
// browsing, run-report history, mapping statistics, health checks) for
// tooling that cannot shell out to cmd/culturemech directly.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/culturemech/culturemech/internal/config"
	"github.com/culturemech/culturemech/internal/telemetry/logging"
)

const defaultHost = "0.0.0.0"

// Server wraps net/http.Server around a gin handler, managing graceful
// startup and shutdown.
type Server struct {
	httpServer *http.Server
	config     config.ServerConfig
	logger     logging.Logger
	listener   net.Listener
	started    atomic.Bool
	actualAddr string
}

// NewServer builds a Server bound to cfg.Port, serving handler.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	addr := fmt.Sprintf("%s:%d", defaultHost, cfg.Port)
	return &Server{
		config: cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Start begins listening and blocks until ctx is cancelled or the server
// fails unrecoverably. A cancelled ctx triggers a graceful Shutdown bounded
// by cfg.ShutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	if s.started.Load() {
		return errors.New("http: server already started")
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("http: listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.actualAddr = ln.Addr().String()
	s.started.Store(true)

	s.logger.Info("apiserver starting", logging.String("address", s.actualAddr))

	serveCh := make(chan error, 1)
	go func() { serveCh <- s.httpServer.Serve(ln) }()

	select {
	case <-ctx.Done():
		s.logger.Info("apiserver shutdown signal received")
		shutdownErr := s.Shutdown(context.Background())
		serveErr := <-serveCh
		if shutdownErr != nil {
			return fmt.Errorf("http: shutdown: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	case err := <-serveCh:
		s.started.Store(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server, bounded by the configured
// ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.started.Store(false)
	if err != nil {
		s.logger.Error("apiserver shutdown error", logging.Err(err))
		return fmt.Errorf("http: shutdown: %w", err)
	}
	s.logger.Info("apiserver stopped gracefully")
	return nil
}

// Addr returns the actual bound address, useful when Port is 0.
func (s *Server) Addr() string {
	return s.actualAddr
}

// IsRunning reports whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	return s.started.Load()
}
