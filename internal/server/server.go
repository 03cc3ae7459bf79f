// Package server exposes a registry Manager to remote callers over a
// WebSocket control channel. Callers send Command frames and receive Reply
// frames plus every registry event.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/omochice/tcp-registry/internal/event"
	"github.com/omochice/tcp-registry/internal/registry"
	"github.com/omochice/tcp-registry/internal/transport/tcp"
	"github.com/omochice/tcp-registry/internal/transport/ws"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

const handshakeTimeout = 10 * time.Second

// Server represents the control gateway
type Server struct {
	address  string
	manager  *registry.Manager
	hub      *event.Hub
	log      *zap.Logger
	listener net.Listener

	sessions map[*session]bool
	mu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// New creates a gateway for manager. Events published to hub are forwarded
// to every connected caller; hub should be the manager's sink.
func New(address string, manager *registry.Manager, hub *event.Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address:  address,
		manager:  manager,
		hub:      hub,
		log:      log,
		sessions: make(map[*session]bool),
		ctx:      ctx,
		cancel:   cancel,
		quit:     make(chan struct{}),
	}
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Listen opens the gateway socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.Info("gateway listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Serve accepts gateway connections on the socket opened by Listen.
func (s *Server) Serve() error {
	s.mu.RLock()
	listener := s.listener
	s.mu.RUnlock()
	if listener == nil {
		return errors.New("gateway is not listening")
	}

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
			}
			delay = tcp.NextAcceptDelay(delay)
			s.log.Warn("failed to accept gateway connection", zap.Duration("retry_in", delay), zap.Error(err))
			select {
			case <-time.After(delay):
				continue
			case <-s.quit:
				return nil
			}
		}
		delay = 0

		s.wg.Add(1)
		go s.handle(conn)
	}
}

// Stop closes the listener and every gateway session.
func (s *Server) Stop() {
	s.once.Do(func() {
		close(s.quit)
		s.cancel()

		s.mu.Lock()
		if s.listener != nil {
			s.listener.Close()
		}
		for sess := range s.sessions {
			sess.conn.Close()
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// SessionCount returns the number of connected callers.
func (s *Server) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()

	wc, err := ws.Accept(conn, handshakeTimeout)
	if err != nil {
		s.log.Debug("websocket upgrade failed", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		conn.Close()
		return
	}

	sess := newSession(wc, s.hub.Subscribe())
	if !s.register(sess) {
		s.hub.Unsubscribe(sess.events)
		wc.Close()
		return
	}
	defer func() {
		s.unregister(sess)
		s.hub.Unsubscribe(sess.events)
		sess.Close()
	}()
	s.log.Info("gateway client connected", zap.String("remote", sess.RemoteAddr()))

	s.wg.Add(1)
	go s.forward(sess)

	for {
		f, decodeErr, err := sess.readFrame()
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.log.Debug("gateway read failed", zap.String("remote", sess.RemoteAddr()), zap.Error(err))
			}
			s.log.Info("gateway client disconnected", zap.String("remote", sess.RemoteAddr()))
			return
		}
		if decodeErr != nil {
			s.log.Debug("failed to decode frame", zap.String("remote", sess.RemoteAddr()), zap.Error(decodeErr))
			continue
		}
		if f.Command == nil {
			s.log.Debug("ignoring frame without command", zap.String("remote", sess.RemoteAddr()))
			continue
		}

		s.wg.Add(1)
		go s.dispatch(sess, *f.Command)
	}
}

func (s *Server) register(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.sessions[sess] = true
	return true
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
}

// forward writes hub events to the caller until the subscription closes.
func (s *Server) forward(sess *session) {
	defer s.wg.Done()
	for ev := range sess.events.Events() {
		if err := sess.writeFrame(&protocol.Frame{Event: &ev}); err != nil {
			s.log.Debug("failed to forward event", zap.String("remote", sess.RemoteAddr()), zap.Error(err))
			return
		}
	}
}

// dispatch runs one command on its own goroutine so a slow connect never
// delays other commands.
func (s *Server) dispatch(sess *session, cmd protocol.Command) {
	defer s.wg.Done()

	err := s.execute(s.ctx, cmd)
	reply := &protocol.Reply{Seq: cmd.Seq, Code: registry.CodeOf(err)}
	if err != nil {
		reply.Message = err.Error()
		s.log.Debug("command failed",
			zap.Stringer("op", cmd.Op),
			zap.String("id", cmd.ID),
			zap.Stringer("code", reply.Code),
			zap.Error(err))
	}
	if err := sess.writeFrame(&protocol.Frame{Reply: reply}); err != nil {
		s.log.Debug("failed to write reply", zap.String("remote", sess.RemoteAddr()), zap.Error(err))
	}
}

func (s *Server) execute(ctx context.Context, cmd protocol.Command) error {
	switch cmd.Op {
	case protocol.OpConnect:
		return s.manager.Connect(ctx, cmd.ID, cmd.Endpoint)
	case protocol.OpConnectWithBind:
		return s.manager.ConnectWithBind(ctx, cmd.ID, cmd.LocalAddr, cmd.Endpoint)
	case protocol.OpBind:
		return s.manager.Bind(ctx, cmd.ID, cmd.Endpoint)
	case protocol.OpUnbind:
		return s.manager.Unbind(ctx, cmd.ID)
	case protocol.OpDisconnect:
		return s.manager.Disconnect(ctx, cmd.ID)
	case protocol.OpSend:
		return s.manager.Send(ctx, cmd.ID, cmd.Data, cmd.PeerAddr)
	default:
		return fmt.Errorf("%w: unknown operation %d", registry.ErrInvalidInput, cmd.Op)
	}
}
