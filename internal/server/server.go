// Package server runs the connection loop: accept one connection, read a single
// request, dispatch it, answer, close, repeat.
//
// Connections are served strictly one after another. The goroutine running
// Serve is the only one that touches the color state.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/stripd/internal/command"
	"github.com/dokzlo13/stripd/internal/eventbus"
	"github.com/dokzlo13/stripd/internal/request"
)

// ResponseHeader precedes every payload. The status is always 200; the
// outcome lives in the JSON body.
const ResponseHeader = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nConnection: close\r\n\r\n"

// DefaultReadBuffer is the most a single request may occupy.
const DefaultReadBuffer = 1024

const maxAcceptDelay = time.Second

// TransportError is a socket level failure while accepting, reading or writing.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Options tunes the connection handling. Zero timeouts block forever.
type Options struct {
	ReadBuffer   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the single-connection command server.
type Server struct {
	addr       string
	opts       Options
	dispatcher *command.Dispatcher
	bus        *eventbus.Bus
	listener   net.Listener
}

// New creates a server for addr. bus may be nil.
func New(addr string, dispatcher *command.Dispatcher, bus *eventbus.Bus, opts Options) *Server {
	if opts.ReadBuffer <= 0 {
		opts.ReadBuffer = DefaultReadBuffer
	}
	return &Server{
		addr:       addr,
		opts:       opts,
		dispatcher: dispatcher,
		bus:        bus,
	}
}

// Listen binds the listening socket. A failure here is fatal to the caller.
func (s *Server) Listen() error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = l
	log.Info().Str("addr", l.Addr().String()).Msg("Server listening")
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run binds and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve accepts and handles connections one at a time until ctx is cancelled.
// Transport failures are logged and the loop moves on to the next accept.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	stop := context.AfterFunc(ctx, func() {
		s.listener.Close()
	})
	defer stop()

	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Info().Msg("Server stopped")
				return nil
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else if delay *= 2; delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			log.Error().Err(&TransportError{Op: "accept", Err: err}).Dur("retry_in", delay).Msg("Failed to accept connection")
			time.Sleep(delay)
			continue
		}
		delay = 0

		if err := s.ServeConn(conn); err != nil {
			log.Warn().Err(err).Msg("Connection closed with error")
		}
	}
}

// ServeConn handles exactly one request on conn and closes it. The returned
// error, if any, is a *TransportError.
func (s *Server) ServeConn(conn net.Conn) error {
	defer conn.Close()

	id := uuid.NewString()
	remote := conn.RemoteAddr().String()
	logger := log.With().Str("request_id", id).Str("remote", remote).Logger()
	logger.Debug().Msg("Connection accepted")

	raw, err := s.read(conn)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		// Still answered; a half-closed peer can read the not_found reply
		logger.Debug().Msg("Peer sent no request")
	}

	req := request.Parse(raw)
	logger.Info().Str("request", strings.ToValidUTF8(req.Line, "?")).Msg("Request")

	route, res := s.dispatcher.Dispatch(req)
	s.publish(logger, command.Event{
		RequestID: id,
		Remote:    remote,
		Route:     route,
		Result:    res,
		State:     s.dispatcher.Snapshot(),
		Time:      time.Now(),
	})

	return s.write(conn, res)
}

// read does a single read; requests spanning several reads are truncated
func (s *Server) read(conn net.Conn) ([]byte, error) {
	if s.opts.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
			return nil, &TransportError{Op: "read", Err: err}
		}
	}
	buf := make([]byte, s.opts.ReadBuffer)
	n, err := conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &TransportError{Op: "read", Err: err}
	}
	return nil, nil
}

func (s *Server) write(conn net.Conn, res command.Result) error {
	if s.opts.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
			return &TransportError{Op: "write", Err: err}
		}
	}
	body := res.JSON()
	resp := make([]byte, 0, len(ResponseHeader)+len(body))
	resp = append(resp, ResponseHeader...)
	resp = append(resp, body...)
	if _, err := conn.Write(resp); err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

func (s *Server) publish(logger zerolog.Logger, ev command.Event) {
	logger.Debug().Str("route", ev.Route).Str("status", string(ev.Result.Status)).Msg("Command dispatched")
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: eventbus.EventTypeCommand, Data: ev})
}
