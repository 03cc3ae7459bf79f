package event

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

// Queue is an unbounded Sink. Emit appends to an in-memory ring buffer and
// returns immediately; a pump goroutine hands events to Events() in order.
type Queue struct {
	mu     sync.Mutex
	buf    *queue.Queue
	closed bool

	notify    chan struct{}
	out       chan protocol.Event
	done      chan struct{}
	draining  chan struct{}
	closeOnce sync.Once
	drainOnce sync.Once
}

// NewQueue creates a Queue and starts its pump.
func NewQueue() *Queue {
	q := &Queue{
		buf:      queue.New(),
		notify:   make(chan struct{}, 1),
		out:      make(chan protocol.Event),
		done:     make(chan struct{}),
		draining: make(chan struct{}),
	}
	go q.pump()
	return q
}

// Emit implements Sink.
func (q *Queue) Emit(ev protocol.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.buf.Add(ev)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Events returns the channel events are delivered on. It is closed after
// Close, or after Drain once every buffered event has been delivered.
func (q *Queue) Events() <-chan protocol.Event {
	return q.out
}

// Len returns the number of events buffered and not yet delivered.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Length()
}

// Close stops the queue. Buffered events that were not delivered are dropped.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.done)
	})
}

// Drain stops accepting events. Events already buffered are still delivered
// before Events() is closed. Close aborts a pending drain.
func (q *Queue) Drain() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.drainOnce.Do(func() { close(q.draining) })
}

func (q *Queue) pump() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if q.buf.Length() == 0 {
			q.mu.Unlock()
			select {
			case <-q.notify:
				continue
			case <-q.draining:
				if q.Len() == 0 {
					return
				}
				continue
			case <-q.done:
				return
			}
		}
		ev := q.buf.Remove().(protocol.Event)
		q.mu.Unlock()

		select {
		case q.out <- ev:
		case <-q.done:
			return
		}
	}
}
