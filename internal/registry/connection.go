package registry

import (
	"github.com/omochice/tcp-registry/internal/transport/tcp"
)

// Kind tells the two Connection shapes apart
type Kind int

const (
	KindClient Kind = iota
	KindServer
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Connection is either a *Client or a *Server. Use sites switch on the
// concrete type; the unexported method keeps the set closed.
type Connection interface {
	Kind() Kind
	retire()
}

// Client is an outbound connection. Send never takes a peer address.
type Client struct {
	conn     *tcp.Conn
	endpoint string
	task     *task
}

func newClient(conn *tcp.Conn, endpoint string) *Client {
	return &Client{
		conn:     conn,
		endpoint: endpoint,
		task:     newTask(conn),
	}
}

// Kind implements Connection.
func (c *Client) Kind() Kind { return KindClient }

// Endpoint returns the remote endpoint as given to Connect.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) retire() {
	c.task.stop()
}

// Server is a listening socket with its accepted peers. Send requires a
// peer address.
type Server struct {
	listener *tcp.Listener
	endpoint string
	sessions *SessionTable
	task     *task
}

func newServer(ln *tcp.Listener, endpoint string) *Server {
	return &Server{
		listener: ln,
		endpoint: endpoint,
		sessions: NewSessionTable(),
		task:     newTask(ln),
	}
}

// Kind implements Connection.
func (s *Server) Kind() Kind { return KindServer }

// Sessions returns the server's peer table.
func (s *Server) Sessions() *SessionTable { return s.sessions }

// retire stops the accept loop first so nothing is inserted into the table
// after it has been drained.
func (s *Server) retire() {
	s.task.stop()
	for _, p := range s.sessions.drain() {
		p.task.stop()
	}
}

// Info is a snapshot of one registry entry.
type Info struct {
	ID        string
	Kind      Kind
	Endpoint  string
	LocalAddr string
	Peers     []string
}

func infoOf(id string, c Connection) Info {
	switch c := c.(type) {
	case *Client:
		return Info{ID: id, Kind: KindClient, Endpoint: c.endpoint, LocalAddr: c.conn.LocalAddr()}
	case *Server:
		return Info{ID: id, Kind: KindServer, Endpoint: c.endpoint, LocalAddr: c.listener.Addr(), Peers: c.sessions.Addrs()}
	}
	return Info{ID: id}
}
