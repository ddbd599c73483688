package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/clipbridge/internal/observability"
	"github.com/danmuck/clipbridge/internal/protocol/frame"
	"github.com/danmuck/clipbridge/internal/protocol/schema"
	"github.com/danmuck/clipbridge/internal/protocol/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Server answers framed invocations on a stream listener.
type Server struct {
	dispatcher *Dispatcher
	cfg        session.Config
	limits     frame.Limits
	logger     zerolog.Logger

	connMu  sync.Mutex
	conns   map[net.Conn]struct{}
	clients atomic.Int64
}

func NewServer(dispatcher *Dispatcher, cfg session.Config) *Server {
	return &Server{
		dispatcher: dispatcher,
		cfg:        cfg.WithDefaults(),
		limits:     frame.DefaultLimits(),
		logger:     log.With().Str("component", "bridge.socket").Logger(),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen opens a unix or tcp listener. A stale unix socket file is removed first.
func Listen(network, addr string) (net.Listener, error) {
	network = strings.ToLower(strings.TrimSpace(network))
	switch network {
	case "unix":
		if info, err := os.Lstat(addr); err == nil && info.Mode()&os.ModeSocket != 0 {
			if err := os.Remove(addr); err != nil {
				return nil, fmt.Errorf("bridge: remove stale socket %s: %w", addr, err)
			}
		}
	case "tcp", "tcp4", "tcp6":
	default:
		return nil, fmt.Errorf("bridge: unsupported network %q", network)
	}
	return net.Listen(network, addr)
}

// Serve accepts connections until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("bridge listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.trackConn(conn)
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	remote := conn.RemoteAddr().String()
	active := s.clients.Add(1)
	observability.ConnOpened()
	s.logger.Debug().Str("remote", remote).Int64("active_clients", active).Msg("client connected")
	defer func() {
		remaining := s.clients.Add(-1)
		observability.ConnClosed()
		s.logger.Debug().Str("remote", remote).Int64("active_clients", remaining).Msg("client disconnected")
	}()

	reader := bufio.NewReader(conn)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		fr, err := session.ReadFrame(reader, s.limits)
		if err != nil {
			if isQuietClose(err) {
				s.logger.Debug().Err(err).Str("remote", remote).Msg("connection closed")
				return
			}
			if ctx.Err() == nil {
				s.logger.Warn().Err(err).Str("remote", remote).Msg("read frame")
				_ = s.writeFailure(conn, 0, session.Failure{
					RequestID: session.UnknownRequestID,
					Kind:      session.KindProtocol,
					Message:   err.Error(),
				})
			}
			return
		}
		if err := s.handleFrame(ctx, conn, fr); err != nil {
			s.logger.Warn().Err(err).Str("remote", remote).Msg("write response")
			return
		}
	}
}

func (s *Server) handleFrame(ctx context.Context, conn net.Conn, fr frame.Frame) error {
	msgID := fr.Header.MessageID
	if fr.Header.MessageType != schema.MsgInvoke {
		return s.writeFailure(conn, msgID, session.Failure{
			RequestID: session.UnknownRequestID,
			Kind:      session.KindProtocol,
			Message:   fmt.Sprintf("unexpected message_type=%d", fr.Header.MessageType),
		})
	}
	inv, err := session.DecodeInvokeFrame(fr)
	if err != nil {
		return s.writeFailure(conn, msgID, session.Failure{
			RequestID: session.UnknownRequestID,
			Kind:      session.KindProtocol,
			Message:   err.Error(),
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	payload, err := s.dispatcher.Dispatch(callCtx, Call{
		Transport: TransportSocket,
		RequestID: inv.RequestID,
		Command:   inv.Command,
		Args:      inv.Args,
		Token:     inv.AuthToken,
	})
	cancel()
	if err != nil {
		return s.writeFailure(conn, msgID, session.Failure{
			RequestID: inv.RequestID,
			Kind:      KindOf(err),
			Message:   err.Error(),
		})
	}
	raw, err := session.EncodeResultFrame(msgID, session.Result{
		RequestID:   inv.RequestID,
		Payload:     payload,
		TimestampMS: nowMS(),
	})
	if err != nil {
		return s.writeFailure(conn, msgID, session.Failure{
			RequestID: inv.RequestID,
			Kind:      session.KindCommandFailed,
			Message:   err.Error(),
		})
	}
	return s.write(conn, raw)
}

func (s *Server) writeFailure(conn net.Conn, msgID uint64, fail session.Failure) error {
	fail.TimestampMS = nowMS()
	raw, err := session.EncodeFailureFrame(msgID, fail)
	if err != nil {
		return err
	}
	return s.write(conn, raw)
}

func (s *Server) write(conn net.Conn, raw []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	_, err := conn.Write(raw)
	return err
}

// ActiveClients reports the number of open connections.
func (s *Server) ActiveClients() int64 {
	return s.clients.Load()
}

func (s *Server) trackConn(conn net.Conn) {
	s.connMu.Lock()
	s.conns[conn] = struct{}{}
	s.connMu.Unlock()
}

func (s *Server) untrackConn(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

func (s *Server) closeAllConns() {
	s.connMu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connMu.Unlock()
	for _, conn := range conns {
		_ = conn.Close()
	}
}

// isQuietClose reports read errors that end a connection without a protocol failure.
func isQuietClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func nowMS() uint64 {
	return uint64(time.Now().UnixMilli())
}
