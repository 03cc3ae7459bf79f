package tcp

import (
	"context"
	"fmt"
	"net"
	"time"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// NextAcceptDelay returns how long to wait before retrying a failed Accept.
// prev is the previous wait, zero after a successful Accept. The wait starts
// at 5ms and doubles up to one second.
func NextAcceptDelay(prev time.Duration) time.Duration {
	if prev <= 0 {
		return minAcceptDelay
	}
	if next := prev * 2; next < maxAcceptDelay {
		return next
	}
	return maxAcceptDelay
}

// Listener accepts TCP connections on a bound endpoint.
type Listener struct {
	ln net.Listener
}

// Listen opens a listening socket on endpoint.
func Listen(ctx context.Context, endpoint string) (*Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", endpoint, err)
	}
	return &Listener{ln: ln}, nil
}

// Accept waits for the next peer.
func (l *Listener) Accept() (*Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewConn(conn), nil
}

// Close stops listening. Blocked Accept calls return net.ErrClosed.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the listening address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}
