package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/tcp-registry/internal/registry"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

// TestScenario_PingPong binds a server and connects a client to it through
// two independent registries, exchanges a ping and a pong and then kills the
// client socket from outside.
func TestScenario_PingPong(t *testing.T) {
	serverSide, serverEvents := newManager(t)
	clientSide, clientEvents := newManager(t)
	ctx := context.Background()

	require.NoError(t, serverSide.Bind(ctx, "srv", "127.0.0.1:0"))
	endpoint := waitEvent(t, serverEvents, is("srv", protocol.EventBind)).Addr

	require.NoError(t, clientSide.Connect(ctx, "cli", endpoint))
	waitEvent(t, clientEvents, isAt("cli", protocol.EventConnect, endpoint))

	info, err := clientSide.Lookup("cli")
	require.NoError(t, err)
	peerAddr := info.LocalAddr
	waitEvent(t, serverEvents, isAt("srv", protocol.EventConnect, peerAddr))

	require.NoError(t, clientSide.Send(ctx, "cli", []byte("ping"), ""))
	ev := waitEvent(t, serverEvents, is("srv", protocol.EventMessage))
	assert.Equal(t, peerAddr, ev.Addr)
	assert.Equal(t, []byte("ping"), ev.Data)

	require.NoError(t, serverSide.Send(ctx, "srv", []byte("pong"), peerAddr))
	ev = waitEvent(t, clientEvents, is("cli", protocol.EventMessage))
	assert.Equal(t, endpoint, ev.Addr)
	assert.Equal(t, []byte("pong"), ev.Data)

	require.NoError(t, registry.CloseSocket(clientSide, "cli"))

	waitEvent(t, clientEvents, isAt("cli", protocol.EventDisconnect, endpoint))
	waitEvent(t, serverEvents, isAt("srv", protocol.EventDisconnect, peerAddr))

	require.Eventually(t, func() bool {
		_, err := clientSide.Lookup("cli")
		return errors.Is(err, registry.ErrNotFound)
	}, waitTimeout, 10*time.Millisecond)
}
