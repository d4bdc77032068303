package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"led-fleet-gateway/pkg/utils"
)

// Server accepts raw TCP device connections and hands each one to the
// session manager on its own goroutine.
type Server struct {
	l        *slog.Logger
	addr     string
	sessions *SessionManager

	mu sync.Mutex
	ln net.Listener
}

// NewServer creates a device listener for addr.
func NewServer(l *slog.Logger, addr string, sessions *SessionManager) *Server {
	return &Server{
		l:        l.With(slog.String("component", "device-server")),
		addr:     addr,
		sessions: sessions,
	}
}

// Serve listens and accepts until the listener is closed or ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.l.Info("device listener started", slog.String("address", s.addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}

			// Transient accept errors (fd pressure) should not kill
			// the listener.
			s.l.Warn("accept failed", utils.ErrAttr(err))
			time.Sleep(100 * time.Millisecond)

			continue
		}

		go s.sessions.Run(ctx, NewTCPTransport(conn))
	}
}

// Addr returns the bound listener address, empty before Serve has bound it.
// Useful when listening on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Close stops accepting new connections. Established connections are torn
// down separately via the registry.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}

	return s.ln.Close()
}
