package registry_test

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omochice/tcp-registry/internal/event"
	"github.com/omochice/tcp-registry/internal/registry"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

const waitTimeout = 2 * time.Second

func newManager(t *testing.T, opts ...registry.Option) (*registry.Manager, *event.Queue) {
	t.Helper()
	q := event.NewQueue()
	opts = append([]registry.Option{registry.WithGracePeriod(10 * time.Millisecond)}, opts...)
	m := registry.NewManager(registry.New(), q, opts...)
	t.Cleanup(func() {
		m.Close()
		q.Close()
	})
	return m, q
}

// waitEvent returns the first event that matches, discarding the rest.
func waitEvent(t *testing.T, q *event.Queue, match func(protocol.Event) bool) protocol.Event {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-q.Events():
			require.True(t, ok, "event queue closed")
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatal("timeout waiting for event")
			return protocol.Event{}
		}
	}
}

// noEvent fails if a matching event arrives within d.
func noEvent(t *testing.T, q *event.Queue, d time.Duration, match func(protocol.Event) bool) {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case ev := <-q.Events():
			if match(ev) {
				t.Fatalf("unexpected event %v", ev)
			}
		case <-deadline:
			return
		}
	}
}

func is(id string, typ protocol.EventType) func(protocol.Event) bool {
	return func(ev protocol.Event) bool {
		return ev.ID == id && ev.Type == typ
	}
}

func isAt(id string, typ protocol.EventType, addr string) func(protocol.Event) bool {
	return func(ev protocol.Event) bool {
		return ev.ID == id && ev.Type == typ && ev.Addr == addr
	}
}

// remote is a plain listener standing in for a host on the network.
type remote struct {
	ln    net.Listener
	conns chan net.Conn
}

func newRemote(t *testing.T) *remote {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	r := &remote{ln: ln, conns: make(chan net.Conn, 8)}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			r.conns <- c
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return r
}

func (r *remote) addr() string {
	return r.ln.Addr().String()
}

func (r *remote) accept(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-r.conns:
		t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timeout waiting for accept")
		return nil
	}
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readN(t *testing.T, c net.Conn, n int) []byte {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(waitTimeout)))
	buf := make([]byte, n)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	return buf
}
