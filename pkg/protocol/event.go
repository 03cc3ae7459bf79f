// Package protocol defines the events emitted by the connection registry and
// the command frames exchanged with the control gateway.
package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// EventType represents the kind of lifecycle or data event
type EventType int

const (
	EventBind EventType = iota
	EventConnect
	EventDisconnect
	EventMessage
	EventUnbind
)

// String returns the string representation of EventType
func (et EventType) String() string {
	switch et {
	case EventBind:
		return "BIND"
	case EventConnect:
		return "CONNECT"
	case EventDisconnect:
		return "DISCONNECT"
	case EventMessage:
		return "MESSAGE"
	case EventUnbind:
		return "UNBIND"
	default:
		return "UNKNOWN"
	}
}

func (et EventType) valid() bool {
	return et >= EventBind && et <= EventUnbind
}

// Event is a notification tagged with the ID of the connection it belongs to.
// Addr holds the bound endpoint for EventBind, the remote address for
// EventConnect, EventDisconnect and EventMessage, and is empty for EventUnbind.
type Event struct {
	ID   string
	Type EventType
	Addr string
	Data []byte
}

// BindEvent reports a listener opened on endpoint.
func BindEvent(id, endpoint string) Event {
	return Event{ID: id, Type: EventBind, Addr: endpoint}
}

// ConnectEvent reports an established connection with addr.
func ConnectEvent(id, addr string) Event {
	return Event{ID: id, Type: EventConnect, Addr: addr}
}

// DisconnectEvent reports that addr closed its side of the stream.
func DisconnectEvent(id, addr string) Event {
	return Event{ID: id, Type: EventDisconnect, Addr: addr}
}

// MessageEvent carries bytes read from addr.
func MessageEvent(id, addr string, data []byte) Event {
	return Event{ID: id, Type: EventMessage, Addr: addr, Data: data}
}

// UnbindEvent reports a listener that was shut down.
func UnbindEvent(id string) Event {
	return Event{ID: id, Type: EventUnbind}
}

// String renders the event for logs and the CLI.
func (e Event) String() string {
	switch e.Type {
	case EventMessage:
		return fmt.Sprintf("%s %s %s (%d bytes)", e.ID, e.Type, e.Addr, len(e.Data))
	case EventUnbind:
		return fmt.Sprintf("%s %s", e.ID, e.Type)
	default:
		return fmt.Sprintf("%s %s %s", e.ID, e.Type, e.Addr)
	}
}

const (
	eventFieldID   protowire.Number = 1
	eventFieldType protowire.Number = 2
	eventFieldAddr protowire.Number = 3
	eventFieldData protowire.Number = 4
)

// Encode encodes the event into protobuf wire format
func (e *Event) Encode() ([]byte, error) {
	if !e.Type.valid() {
		return nil, fmt.Errorf("failed to encode event: unknown type %d", e.Type)
	}
	return e.appendTo(nil), nil
}

func (e *Event) appendTo(b []byte) []byte {
	b = appendString(b, eventFieldID, e.ID)
	b = appendVarint(b, eventFieldType, uint64(e.Type))
	b = appendString(b, eventFieldAddr, e.Addr)
	b = appendBytes(b, eventFieldData, e.Data)
	return b
}

// Decode decodes protobuf wire format bytes into an event
func (e *Event) Decode(data []byte) error {
	*e = Event{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case eventFieldID:
			return consumeString(typ, b, &e.ID)
		case eventFieldType:
			var v uint64
			n, err := consumeVarint(typ, b, &v)
			e.Type = EventType(v)
			return n, err
		case eventFieldAddr:
			return consumeString(typ, b, &e.Addr)
		case eventFieldData:
			return consumeBytes(typ, b, &e.Data)
		}
		return skipField(num, typ, b)
	})
	if err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if !e.Type.valid() {
		return fmt.Errorf("failed to decode event: unknown type %d", e.Type)
	}
	return nil
}
