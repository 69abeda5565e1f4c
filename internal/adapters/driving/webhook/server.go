package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server hosts a Handler on a local address.
type Server struct {
	mu       sync.Mutex
	addr     string
	handler  http.Handler
	server   *http.Server
	listener net.Listener
	errChan  chan error
}

// NewServer creates a server for h. Call Start to begin listening.
func NewServer(addr string, h http.Handler) *Server {
	return &Server{
		addr:    addr,
		handler: h,
		errChan: make(chan error, 1),
	}
}

// Start listens on the configured address and serves in the background.
// An addr with port 0 picks a free port; see Addr.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("webhook server already started")
	}

	mux := http.NewServeMux()
	mux.Handle("/webhook", s.handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.addr = listener.Addr().String()

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the delivery endpoint.
func (s *Server) URL() string {
	return "http://" + s.Addr() + "/webhook"
}

// Err reports a fatal serve error.
func (s *Server) Err() <-chan error {
	return s.errChan
}

// Stop shuts the server down, waiting for in-flight deliveries.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
