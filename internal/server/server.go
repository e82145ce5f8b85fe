package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/storegw/internal/observability"
)

const (
	// readTimeout bounds slow-header abuse on inbound requests.
	readTimeout = 30 * time.Second

	readHeaderTimeout = 10 * time.Second

	// writeTimeout accommodates multi-gigabyte streamed responses.
	writeTimeout = 2 * time.Hour

	idleTimeout = 300 * time.Second

	maxHeaderBytes = 1 << 20

	// ShutdownGrace is how long in-flight requests, including active
	// downloads, get to finish before remaining connections are forced
	// closed.
	ShutdownGrace = 10 * time.Second
)

// Server wraps http.Server with the gateway's timeout profile and
// graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     observability.Logger
	running    atomic.Bool
}

// New creates a server for the given handler.
func New(handler http.Handler, logger observability.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
		logger: logger,
	}
}

// Serve accepts connections on ln until Shutdown. It returns nil on
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.running.Store(true)

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new connections and waits up to
// ShutdownGrace for in-flight requests to finish, then force-closes
// what remains. Safe to call more than once.
func (s *Server) Shutdown() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown expired, forcing close",
			observability.Error(err),
		)
		return s.httpServer.Close()
	}

	return nil
}
