package registry

import (
	"time"

	"go.uber.org/zap"

	"github.com/omochice/tcp-registry/internal/transport/tcp"
)

// DefaultGracePeriod is how long an operation waits after retiring a
// connection before reusing its ID, giving the OS time to release the socket.
const DefaultGracePeriod = 100 * time.Millisecond

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithGracePeriod sets the wait applied after an ID is replaced.
func WithGracePeriod(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.grace = d
		}
	}
}

// WithReadBufferSize sets the per-loop read buffer size.
func WithReadBufferSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.bufSize = n
		}
	}
}

func defaultOptions(m *Manager) {
	m.log = zap.NewNop()
	m.grace = DefaultGracePeriod
	m.bufSize = tcp.ReadBufferSize
}
