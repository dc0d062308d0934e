package engine

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monodebug/attachnotify/pkg/frame"
	"github.com/monodebug/attachnotify/pkg/log"
)

// Handler processes one inbound payload. A non-nil reply is framed and sent
// back on the same connection.
type Handler func(remote string, payload []byte) (reply []byte)

// Config holds the listener settings.
type Config struct {
	// Addr is the host:port to listen on.
	Addr string

	// ByteOrder of the length prefix. Nil selects frame.Wire.
	ByteOrder binary.ByteOrder

	// MaxFrameSize rejects larger inbound frames. Zero selects frame.DefaultMaxSize.
	MaxFrameSize int

	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration

	// WriteTimeout bounds each reply write.
	WriteTimeout time.Duration
}

// Accept errors other than a closed listener are retried with a doubling
// delay between these bounds.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server accepts notification channels and hands every frame to a Handler.
// Each connection is served by its own goroutine.
type Server struct {
	cfg     Config
	handler Handler
	logger  log.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup

	frames atomic.Int64
}

// New creates a Server. Call Listen, then Serve.
func New(cfg Config, handler Handler, logger log.Logger) *Server {
	if cfg.ByteOrder == nil {
		cfg.ByteOrder = frame.Wire
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = frame.DefaultMaxSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		conns:   make(map[net.Conn]struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("engine listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Frames returns the number of frames handled so far.
func (s *Server) Frames() int64 { return s.frames.Load() }

// Serve accepts connections until ctx is done or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("engine: Serve called before Listen")
	}

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.logger.Error("accept error", log.Err(err), log.Duration("retry_in", delay))
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			continue
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// Close stops accepting and closes every open connection.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		_ = conn.Close()
	}
	return err
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	remote := conn.RemoteAddr().String()
	logger := s.logger.With(log.String("remote", remote))
	logger.Info("channel connected")

	for {
		if s.cfg.IdleTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				logger.Error("failed to set read deadline", log.Err(err))
				return
			}
		}

		payload, err := frame.Read(conn, s.cfg.ByteOrder, s.cfg.MaxFrameSize)
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			logger.Info("connection closed by client")
			return
		}
		if err != nil {
			logger.Error("error reading frame", log.Err(err))
			return
		}
		s.frames.Add(1)

		if s.handler == nil {
			continue
		}
		reply := s.handler(remote, payload)
		if reply == nil {
			continue
		}

		if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			logger.Error("failed to set write deadline", log.Err(err))
			return
		}
		if err := frame.Write(conn, reply, s.cfg.ByteOrder); err != nil {
			logger.Error("failed to write reply", log.Err(err))
			return
		}
	}
}

// AckPrefix is prepended to payloads echoed by Ack.
const AckPrefix = "ack:"

// Ack wraps next so every payload is also acknowledged with
// "ack:<payload>". next may be nil.
func Ack(next Handler) Handler {
	return func(remote string, payload []byte) []byte {
		if next != nil {
			next(remote, payload)
		}
		reply := make([]byte, 0, len(AckPrefix)+len(payload))
		reply = append(reply, AckPrefix...)
		return append(reply, payload...)
	}
}
