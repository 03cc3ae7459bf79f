// Package ws carries gateway messages as WebSocket binary messages.
package ws

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Conn is one side of a WebSocket connection. Writes are serialized; Read
// must be called from a single goroutine.
type Conn struct {
	conn  net.Conn
	rw    io.ReadWriter
	state ws.State
	wmu   sync.Mutex
}

// Accept upgrades an accepted TCP connection. The handshake must finish
// within timeout. conn is left open on failure.
func Accept(conn net.Conn, timeout time.Duration) (*Conn, error) {
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := ws.Upgrade(conn); err != nil {
		return nil, fmt.Errorf("websocket upgrade: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	return &Conn{conn: conn, rw: conn, state: ws.StateServerSide}, nil
}

// Dial opens a client connection to url, e.g. ws://localhost:7070.
func Dial(ctx context.Context, url string) (*Conn, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	c := &Conn{conn: conn, rw: conn, state: ws.StateClientSide}
	if br != nil {
		// the server already sent frames behind the handshake response
		c.rw = struct {
			io.Reader
			io.Writer
		}{br, conn}
	}
	return c, nil
}

// Read returns the next binary message. Text messages are skipped and
// control frames are answered.
func (c *Conn) Read() ([]byte, error) {
	for {
		data, op, err := wsutil.ReadData(c.rw, c.state)
		if err != nil {
			return nil, err
		}
		if op == ws.OpBinary {
			return data, nil
		}
	}
}

// Write sends data as one binary message.
func (c *Conn) Write(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return wsutil.WriteMessage(c.conn, c.state, ws.OpBinary, data)
}

// closeWait bounds how long Close waits on a peer that stopped reading.
const closeWait = time.Second

// Close sends a close frame and closes the socket.
func (c *Conn) Close() error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(closeWait))
	c.wmu.Lock()
	_ = wsutil.WriteMessage(c.conn, c.state, ws.OpClose, nil)
	c.wmu.Unlock()
	return c.conn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
