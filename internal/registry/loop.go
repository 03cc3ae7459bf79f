package registry

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/omochice/tcp-registry/internal/transport/tcp"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

// readLoop drains conn until end-of-stream or cancellation. Every read
// becomes a Message event. A read error is end-of-stream: Disconnect is
// emitted, cleanup runs and the socket is closed. A cancelled loop returns
// silently and drops whatever it was reading.
func (m *Manager) readLoop(ctx context.Context, id, addr string, conn *tcp.Conn, cleanup func()) {
	buf := make([]byte, m.bufSize)
	for {
		n, err := conn.Read(buf)
		if ctx.Err() != nil {
			return
		}
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			m.log.Debug("tcp received", zap.String("id", id), zap.Int("bytes", n), zap.String("addr", addr))
			m.emit(protocol.MessageEvent(id, addr, data))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				m.log.Debug("tcp read failed", zap.String("id", id), zap.String("addr", addr), zap.Error(err))
			}
			m.emit(protocol.DisconnectEvent(id, addr))
			cleanup()
			_ = conn.Close()
			return
		}
	}
}

// acceptLoop accepts peers until cancelled. Accept errors never end the
// loop; they are retried with a capped backoff.
func (m *Manager) acceptLoop(ctx context.Context, id string, s *Server) {
	var delay time.Duration
	for {
		conn, err := s.listener.Accept()
		if ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			delay = tcp.NextAcceptDelay(delay)
			m.log.Warn("tcp accept failed", zap.String("id", id), zap.Duration("retry_in", delay), zap.Error(err))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}
		delay = 0
		m.startPeer(id, s, conn)
	}
}

// startPeer registers the session before announcing it, so a consumer that
// sees Connect can already send to the peer.
func (m *Manager) startPeer(id string, s *Server, conn *tcp.Conn) {
	addr := conn.RemoteAddr()
	p := newPeerSession(conn)
	if old := s.sessions.swap(addr, p); old != nil {
		old.task.stop()
	}
	m.log.Debug("tcp client connected", zap.String("id", id), zap.String("addr", addr))
	m.emit(protocol.ConnectEvent(id, addr))
	p.task.start(func(ctx context.Context) {
		m.readLoop(ctx, id, addr, conn, func() {
			s.sessions.removeIf(addr, p)
		})
	})
}
