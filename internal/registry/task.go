package registry

import (
	"context"
	"io"
)

// task is a background loop bound to a socket. stop cancels the loop's
// context, closes the socket to unblock any pending Read or Accept and waits
// for the loop to return.
type task struct {
	ctx    context.Context
	cancel context.CancelFunc
	closer io.Closer
	done   chan struct{}
}

func newTask(closer io.Closer) *task {
	ctx, cancel := context.WithCancel(context.Background())
	return &task{
		ctx:    ctx,
		cancel: cancel,
		closer: closer,
		done:   make(chan struct{}),
	}
}

func (t *task) start(run func(ctx context.Context)) {
	go func() {
		defer close(t.done)
		defer t.cancel()
		run(t.ctx)
	}()
}

func (t *task) stop() {
	t.cancel()
	_ = t.closer.Close()
	<-t.done
}
