package registry

import "fmt"

// CloseSocket closes the socket of the client under id from outside the
// registry, the way a network fault would.
func CloseSocket(m *Manager, id string) error {
	c, ok := m.registry.Get(id)
	if !ok {
		return fmt.Errorf("no connection %s", id)
	}
	cl, ok := c.(*Client)
	if !ok {
		return fmt.Errorf("%s is not a client", id)
	}
	return cl.conn.Close()
}
