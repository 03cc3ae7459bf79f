// Package registry keeps the live TCP clients and servers of a process,
// keyed by caller-chosen IDs, and runs their background read and accept
// loops.
package registry

import (
	"sort"
	"sync"
)

// Registry maps IDs to connections. It is the single source of truth for
// which sockets exist. Methods only touch memory; callers never hold the
// lock across network I/O.
type Registry struct {
	conns map[string]Connection
	mu    sync.RWMutex
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		conns: make(map[string]Connection),
	}
}

// Get returns the connection stored under id.
func (r *Registry) Get(id string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Swap stores c under id and returns the connection it displaced, if any.
func (r *Registry) Swap(id string, c Connection) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.conns[id]
	r.conns[id] = c
	return old
}

// Remove deletes id and returns what was stored there.
func (r *Registry) Remove(id string) Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return nil
	}
	delete(r.conns, id)
	return c
}

// RemoveIf deletes id only while it still maps to c. Loops use it to retire
// their own entry without touching a replacement.
func (r *Registry) RemoveIf(id string, c Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[id]; !ok || cur != c {
		return false
	}
	delete(r.conns, id)
	return true
}

// IDs returns the registered IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
