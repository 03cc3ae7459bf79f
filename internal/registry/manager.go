package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omochice/tcp-registry/internal/event"
	"github.com/omochice/tcp-registry/internal/transport/tcp"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

// Manager runs the lifecycle operations against a Registry and reports every
// state change to an event sink.
//
// Replacing an ID is not atomic with respect to Send on that ID: a Send
// racing Connect or Bind may reach the old socket, fail with ErrNotFound or
// reach the new socket. Callers that care serialize their own calls per ID.
type Manager struct {
	registry *Registry
	sink     event.Sink
	log      *zap.Logger
	grace    time.Duration
	bufSize  int
}

// NewManager creates a Manager that owns the entries of reg.
func NewManager(reg *Registry, sink event.Sink, opts ...Option) *Manager {
	if sink == nil {
		sink = event.Discard
	}
	m := &Manager{registry: reg, sink: sink}
	defaultOptions(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens a client connection to endpoint under id, replacing any
// connection already registered under id.
func (m *Manager) Connect(ctx context.Context, id, endpoint string) error {
	if err := m.replace(ctx, id); err != nil {
		return err
	}

	conn, err := tcp.Dial(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("ID %s: %w", id, err)
	}
	m.log.Debug("tcp connected", zap.String("id", id), zap.String("endpoint", endpoint))
	m.startClient(id, endpoint, conn)
	return nil
}

// ConnectWithBind is Connect with the local side of the socket bound to
// localAddr. Both addresses must resolve, otherwise ErrInvalidInput is
// returned and nothing is dialed.
func (m *Manager) ConnectWithBind(ctx context.Context, id, localAddr, endpoint string) error {
	if err := m.replace(ctx, id); err != nil {
		return err
	}

	conn, err := tcp.DialFrom(ctx, localAddr, endpoint)
	if err != nil {
		var addrErr *tcp.AddrError
		if errors.As(err, &addrErr) {
			return fmt.Errorf("%w: ID %s: %w", ErrInvalidInput, id, err)
		}
		return fmt.Errorf("ID %s: %w", id, err)
	}
	m.log.Debug("tcp connected",
		zap.String("id", id),
		zap.String("endpoint", endpoint),
		zap.String("local", conn.LocalAddr()))
	m.startClient(id, endpoint, conn)
	return nil
}

func (m *Manager) startClient(id, endpoint string, conn *tcp.Conn) {
	c := newClient(conn, endpoint)
	m.install(id, c)
	m.emit(protocol.ConnectEvent(id, endpoint))
	c.task.start(func(ctx context.Context) {
		m.readLoop(ctx, id, endpoint, conn, func() {
			m.registry.RemoveIf(id, c)
		})
	})
}

// Bind opens a listening socket on endpoint under id, replacing any
// connection already registered under id. The Bind event carries the address
// the listener actually bound, so a port of 0 is reported resolved.
func (m *Manager) Bind(ctx context.Context, id, endpoint string) error {
	if err := m.replace(ctx, id); err != nil {
		return err
	}

	ln, err := tcp.Listen(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("ID %s: %w", id, err)
	}
	m.log.Debug("tcp server listening", zap.String("id", id), zap.String("addr", ln.Addr()))

	s := newServer(ln, endpoint)
	m.install(id, s)
	m.emit(protocol.BindEvent(id, ln.Addr()))
	s.task.start(func(ctx context.Context) {
		m.acceptLoop(ctx, id, s)
	})
	return nil
}

// Unbind shuts down the server registered under id together with all of its
// peers and emits one Unbind event. A client under id is left untouched and
// ErrInvalidInput is returned.
func (m *Manager) Unbind(ctx context.Context, id string) error {
	c, ok := m.registry.Get(id)
	if !ok {
		return notFoundf("ID %s not bound", id)
	}
	s, ok := c.(*Server)
	if !ok {
		return invalidInputf("ID %s is a tcp client, use disconnect", id)
	}
	if !m.registry.RemoveIf(id, s) {
		return notFoundf("ID %s not bound", id)
	}

	s.retire()
	m.log.Debug("tcp server closed", zap.String("id", id))
	m.emit(protocol.UnbindEvent(id))
	return nil
}

// Disconnect removes id and stops its background work. No event is emitted:
// cancellation is not end-of-stream.
func (m *Manager) Disconnect(ctx context.Context, id string) error {
	c := m.registry.Remove(id)
	if c == nil {
		return notFoundf("ID %s not connected", id)
	}
	c.retire()
	m.log.Debug("tcp disconnected", zap.String("id", id), zap.Stringer("kind", c.Kind()))
	return nil
}

// Send writes data to the connection registered under id. peerAddr must be
// empty for a client and must name an accepted peer for a server.
func (m *Manager) Send(ctx context.Context, id string, data []byte, peerAddr string) error {
	c, ok := m.registry.Get(id)
	if !ok {
		return notFoundf("ID %s not connected or not bound", id)
	}

	switch c := c.(type) {
	case *Client:
		if peerAddr != "" {
			return invalidInputf("ID %s is a tcp client, `addr` must be empty", id)
		}
		if err := c.conn.Write(ctx, data); err != nil {
			return fmt.Errorf("ID %s: failed to send to %s: %w", id, c.endpoint, err)
		}
		m.log.Debug("tcp sent", zap.String("id", id), zap.Int("bytes", len(data)), zap.String("addr", c.endpoint))
	case *Server:
		if peerAddr == "" {
			return invalidInputf("ID %s is a tcp server, `addr` is required", id)
		}
		p, ok := c.sessions.get(peerAddr)
		if !ok {
			return notFoundf("ID %s socket %s not connected", id, peerAddr)
		}
		if err := p.conn.Write(ctx, data); err != nil {
			return fmt.Errorf("ID %s: failed to send to %s: %w", id, peerAddr, err)
		}
		m.log.Debug("tcp sent", zap.String("id", id), zap.Int("bytes", len(data)), zap.String("addr", peerAddr))
	default:
		return fmt.Errorf("ID %s: unsupported connection %T", id, c)
	}
	return nil
}

// Lookup returns a snapshot of the entry under id.
func (m *Manager) Lookup(id string) (Info, error) {
	c, ok := m.registry.Get(id)
	if !ok {
		return Info{}, notFoundf("ID %s not connected or not bound", id)
	}
	return infoOf(id, c), nil
}

// IDs returns the registered IDs in sorted order.
func (m *Manager) IDs() []string {
	return m.registry.IDs()
}

// Close retires every registered connection without emitting events.
func (m *Manager) Close() {
	for _, id := range m.registry.IDs() {
		if c := m.registry.Remove(id); c != nil {
			c.retire()
		}
	}
}

// replace retires whatever is registered under id and then waits the grace
// period before the caller opens a new socket.
func (m *Manager) replace(ctx context.Context, id string) error {
	old := m.registry.Remove(id)
	if old == nil {
		return nil
	}
	old.retire()
	m.log.Debug("tcp replaced", zap.String("id", id), zap.Stringer("kind", old.Kind()))

	if m.grace <= 0 {
		return nil
	}
	timer := time.NewTimer(m.grace)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ID %s: %w", id, ctx.Err())
	}
}

// install registers c. A connection inserted under the same id by a
// concurrent operation in the meantime is retired.
func (m *Manager) install(id string, c Connection) {
	if old := m.registry.Swap(id, c); old != nil {
		old.retire()
	}
}

func (m *Manager) emit(ev protocol.Event) {
	if err := m.sink.Emit(ev); err != nil {
		m.log.Debug("event not delivered", zap.Stringer("event", ev), zap.Error(err))
	}
}
