package registry

import (
	"sort"
	"sync"

	"github.com/omochice/tcp-registry/internal/transport/tcp"
)

// PeerSession is one accepted inbound connection on a Server.
type PeerSession struct {
	conn *tcp.Conn
	task *task
}

func newPeerSession(conn *tcp.Conn) *PeerSession {
	return &PeerSession{conn: conn, task: newTask(conn)}
}

// SessionTable maps peer address to PeerSession. It has its own lock so peer
// churn on one server never contends with the registry.
type SessionTable struct {
	sessions map[string]*PeerSession
	mu       sync.RWMutex
}

// NewSessionTable creates an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{
		sessions: make(map[string]*PeerSession),
	}
}

func (t *SessionTable) get(addr string) (*PeerSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.sessions[addr]
	return p, ok
}

// swap stores p under addr and returns the session it displaced, if any.
func (t *SessionTable) swap(addr string, p *PeerSession) *PeerSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.sessions[addr]
	t.sessions[addr] = p
	return old
}

// removeIf deletes addr only while it still maps to p.
func (t *SessionTable) removeIf(addr string, p *PeerSession) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions[addr] != p {
		return false
	}
	delete(t.sessions, addr)
	return true
}

// drain empties the table and returns what it held.
func (t *SessionTable) drain() []*PeerSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*PeerSession, 0, len(t.sessions))
	for addr, p := range t.sessions {
		out = append(out, p)
		delete(t.sessions, addr)
	}
	return out
}

// Len returns number of live peers.
func (t *SessionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Addrs returns the sorted peer addresses.
func (t *SessionTable) Addrs() []string {
	t.mu.RLock()
	addrs := make([]string, 0, len(t.sessions))
	for addr := range t.sessions {
		addrs = append(addrs, addr)
	}
	t.mu.RUnlock()
	sort.Strings(addrs)
	return addrs
}
