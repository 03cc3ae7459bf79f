package server

import (
	"github.com/omochice/tcp-registry/internal/event"
	"github.com/omochice/tcp-registry/internal/transport/ws"
	"github.com/omochice/tcp-registry/pkg/protocol"
)

// session is one upgraded gateway connection with its event subscription.
type session struct {
	conn   *ws.Conn
	events *event.Queue
}

func newSession(conn *ws.Conn, events *event.Queue) *session {
	return &session{conn: conn, events: events}
}

func (s *session) RemoteAddr() string {
	return s.conn.RemoteAddr()
}

func (s *session) writeFrame(f *protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	return s.conn.Write(data)
}

// readFrame reads the next message. A transport failure is returned as err;
// a message that does not decode is reported through decodeErr and leaves
// the session usable.
func (s *session) readFrame() (f *protocol.Frame, decodeErr, err error) {
	data, err := s.conn.Read()
	if err != nil {
		return nil, nil, err
	}
	f = &protocol.Frame{}
	if err := f.Decode(data); err != nil {
		return nil, err, nil
	}
	return f, nil, nil
}

func (s *session) Close() error {
	return s.conn.Close()
}
