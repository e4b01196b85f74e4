package app

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/stripd/internal/command"
	"github.com/dokzlo13/stripd/internal/config"
	"github.com/dokzlo13/stripd/internal/eventbus"
	"github.com/dokzlo13/stripd/internal/server"
)

// ServerService runs the command server on its own goroutine.
type ServerService struct {
	cfg       *config.Config
	server    *server.Server
	listening atomic.Bool
	done      chan struct{}
}

// NewServerService creates a new ServerService.
func NewServerService(cfg *config.Config, dispatcher *command.Dispatcher, bus *eventbus.Bus) *ServerService {
	srv := server.New(cfg.Server.Addr(), dispatcher, bus, server.Options{
		ReadBuffer:   cfg.Server.ReadBuffer,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
	})
	return &ServerService{
		cfg:    cfg,
		server: srv,
	}
}

// Start binds the listener and serves in the background.
// A bind failure is returned; anything after that goes to onFatalError.
func (s *ServerService) Start(ctx context.Context, onFatalError func(error)) error {
	if err := s.server.Listen(); err != nil {
		return err
	}
	s.listening.Store(true)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		defer s.listening.Store(false)
		if err := s.server.Serve(ctx); err != nil {
			onFatalError(err)
		}
	}()
	return nil
}

// Listening reports whether the server is accepting connections.
func (s *ServerService) Listening() bool {
	return s.listening.Load()
}

// Port returns the bound TCP port, or the configured one before Start.
func (s *ServerService) Port() int {
	if addr, ok := s.server.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.cfg.Server.Port
}

// Wait blocks until the serve loop exits or timeout elapses.
func (s *ServerService) Wait(timeout time.Duration) {
	if s.done == nil {
		return
	}
	select {
	case <-s.done:
	case <-time.After(timeout):
		log.Warn().Dur("timeout", timeout).Msg("Server did not stop in time")
	}
}
