// Package client talks to a tcp-registry gateway over WebSocket.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/omochice/tcp-registry/internal/event"
	"github.com/omochice/tcp-registry/internal/registry"
	"github.com/omochice/tcp-registry/internal/transport/ws"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

// ErrClosed is returned by calls made on a closed client.
var ErrClosed = errors.New("gateway connection closed")

// Client is a gateway connection. Calls may be made concurrently; each one
// waits for its own reply.
type Client struct {
	conn *ws.Conn

	seq     atomic.Uint64
	pending map[uint64]chan protocol.Reply
	closed  bool
	mu      sync.Mutex

	events    *event.Queue
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to a gateway, e.g. ws://localhost:7070.
func Dial(ctx context.Context, address string) (*Client, error) {
	conn, err := ws.Dial(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[uint64]chan protocol.Reply),
		events:  event.NewQueue(),
		done:    make(chan struct{}),
	}

	c.wg.Add(1)
	go c.receive()

	return c, nil
}

// Connect implements Operations.
func (c *Client) Connect(ctx context.Context, id, endpoint string) error {
	return c.call(ctx, protocol.Command{Op: protocol.OpConnect, ID: id, Endpoint: endpoint})
}

// ConnectWithBind implements Operations.
func (c *Client) ConnectWithBind(ctx context.Context, id, localAddr, endpoint string) error {
	return c.call(ctx, protocol.Command{Op: protocol.OpConnectWithBind, ID: id, LocalAddr: localAddr, Endpoint: endpoint})
}

// Bind implements Operations.
func (c *Client) Bind(ctx context.Context, id, endpoint string) error {
	return c.call(ctx, protocol.Command{Op: protocol.OpBind, ID: id, Endpoint: endpoint})
}

// Unbind implements Operations.
func (c *Client) Unbind(ctx context.Context, id string) error {
	return c.call(ctx, protocol.Command{Op: protocol.OpUnbind, ID: id})
}

// Disconnect implements Operations.
func (c *Client) Disconnect(ctx context.Context, id string) error {
	return c.call(ctx, protocol.Command{Op: protocol.OpDisconnect, ID: id})
}

// Send implements Operations.
func (c *Client) Send(ctx context.Context, id string, data []byte, peerAddr string) error {
	return c.call(ctx, protocol.Command{Op: protocol.OpSend, ID: id, Data: data, PeerAddr: peerAddr})
}

// Do sends cmd and waits for its reply. cmd.Seq is assigned by the client.
func (c *Client) Do(ctx context.Context, cmd protocol.Command) error {
	return c.call(ctx, cmd)
}

// Events returns the registry events forwarded by the gateway. When the
// gateway ends the connection, events already received are still delivered
// before the channel is closed. Close drops them.
func (c *Client) Events() <-chan protocol.Event {
	return c.events.Events()
}

// Close closes the gateway connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		err = c.conn.Close()
	})
	c.wg.Wait()
	c.events.Close()
	return err
}

func (c *Client) call(ctx context.Context, cmd protocol.Command) error {
	cmd.Seq = c.seq.Add(1)
	ch := make(chan protocol.Reply, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[cmd.Seq] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, cmd.Seq)
		c.mu.Unlock()
	}()

	data, err := (&protocol.Frame{Command: &cmd}).Encode()
	if err != nil {
		return err
	}
	if err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd.Op, err)
	}

	select {
	case reply := <-ch:
		return registry.ErrorFromCode(reply.Code, reply.Message)
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// receive reads frames until the connection ends, routing replies to their
// callers and events to the event queue.
func (c *Client) receive() {
	defer c.wg.Done()
	defer close(c.done)
	defer c.events.Drain()

	for {
		data, err := c.conn.Read()
		if err != nil {
			return
		}

		var f protocol.Frame
		if err := f.Decode(data); err != nil {
			continue
		}

		switch {
		case f.Event != nil:
			_ = c.events.Emit(*f.Event)
		case f.Reply != nil:
			c.mu.Lock()
			ch, ok := c.pending[f.Reply.Seq]
			c.mu.Unlock()
			if ok {
				ch <- *f.Reply
			}
		}
	}
}
