package event

import (
	"sync"

	"github.com/omochice/tcp-registry/pkg/protocol"
)

// Hub fans every emitted event out to all subscribers. Each subscriber owns
// a Queue, so a slow subscriber never delays the others or the emitter.
type Hub struct {
	subs map[*Queue]bool
	mu   sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Queue]bool),
	}
}

// Subscribe registers a new subscriber queue.
func (h *Hub) Subscribe() *Queue {
	q := NewQueue()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[q] = true
	return q
}

// Unsubscribe removes the queue from the hub and closes it.
func (h *Hub) Unsubscribe(q *Queue) {
	h.mu.Lock()
	delete(h.subs, q)
	h.mu.Unlock()
	q.Close()
}

// SubscriberCount returns number of subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Emit implements Sink. A subscriber closed concurrently is skipped.
func (h *Hub) Emit(ev protocol.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for q := range h.subs {
		_ = q.Emit(ev)
	}
	return nil
}
