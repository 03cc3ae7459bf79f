package client

import "context"

// Operations is the set of registry lifecycle operations. Both
// *registry.Manager (in process) and *Client (over the gateway) satisfy it.
type Operations interface {
	Connect(ctx context.Context, id, endpoint string) error
	ConnectWithBind(ctx context.Context, id, localAddr, endpoint string) error
	Bind(ctx context.Context, id, endpoint string) error
	Unbind(ctx context.Context, id string) error
	Disconnect(ctx context.Context, id string) error
	Send(ctx context.Context, id string, data []byte, peerAddr string) error
}
