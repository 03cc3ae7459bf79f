// Package tcp provides the TCP transport used by the connection registry.
package tcp

import (
	"context"
	"net"
	"sync"
	"time"
)

// ReadBufferSize is the size of the buffer a read loop drains a socket into.
const ReadBufferSize = 64 * 1024

// Conn wraps a net.Conn. The read half is owned by a single read loop; the
// write half is guarded so concurrent Write calls never interleave.
type Conn struct {
	conn net.Conn
	wmu  sync.Mutex
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read reads available bytes into buf.
// Returns io.EOF when the peer closed the stream.
func (c *Conn) Read(buf []byte) (int, error) {
	return c.conn.Read(buf)
}

// Write writes all of data. A deadline on ctx bounds the write.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	_, err := c.conn.Write(data)
	return err
}

// Close closes both halves of the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote address in host:port form.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// LocalAddr returns the local address in host:port form.
func (c *Conn) LocalAddr() string {
	return c.conn.LocalAddr().String()
}
