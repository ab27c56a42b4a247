package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"sync"

	"go.uber.org/atomic"
)

// ServerState is the lifecycle state of a Server.
type ServerState uint32

const (
	// Stopped is both the initial and the final state.
	Stopped ServerState = iota

	// Listening means the listener is bound and accepting connections.
	Listening
)

func (s ServerState) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Listening:
		return "Listening"
	default:
		return fmt.Sprintf("ServerState(%d)", uint32(s))
	}
}

// Server serves the request counter over HTTP.
type Server struct {
	cfg     *Config
	counter *RequestCounter

	state atomic.Uint32

	httpServer *http.Server
	listener   net.Listener

	errChan chan error
	wg      sync.WaitGroup
}

func NewServer(cfg *Config, counter *RequestCounter) *Server {
	return &Server{
		cfg:     cfg,
		counter: counter,
		errChan: make(chan error, 1),
	}
}

// Start binds the configured address and begins serving in the background.
// A bind failure is returned directly and leaves the server Stopped.
func (s *Server) Start() error {
	if s.State() == Listening {
		return errors.New("server already started")
	}

	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", s.cfg.Listen, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           newHandler(s.counter, s.cfg.AllowedOrigins),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          stdlog.New(debugWriter{httpLog}, "", 0),
	}
	s.state.Store(uint32(Listening))

	log.Infof("Listening on %v", listener.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// Stop shuts the server down gracefully. In-flight requests get until ctx
// is done to finish. Calling Stop on a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.state.CAS(uint32(Listening), uint32(Stopped)) {
		return nil
	}

	log.Infof("Stopping server on %v", s.listener.Addr())

	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("unable to shut down server: %w", err)
	}

	log.Infof("Server stopped after %d requests", s.counter.Load())
	return nil
}

// State reports whether the server is currently listening.
func (s *Server) State() ServerState {
	return ServerState(s.state.Load())
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Errors delivers a fatal error if serving stops unexpectedly.
func (s *Server) Errors() <-chan error {
	return s.errChan
}
