package protocol

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Op identifies a registry operation requested over the gateway
type Op int

const (
	OpConnect Op = iota + 1
	OpConnectWithBind
	OpBind
	OpUnbind
	OpDisconnect
	OpSend
)

// String returns the string representation of Op
func (op Op) String() string {
	switch op {
	case OpConnect:
		return "connect"
	case OpConnectWithBind:
		return "connect_with_bind"
	case OpBind:
		return "bind"
	case OpUnbind:
		return "unbind"
	case OpDisconnect:
		return "disconnect"
	case OpSend:
		return "send"
	default:
		return "unknown"
	}
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, error) {
	for op := OpConnect; op <= OpSend; op++ {
		if op.String() == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

// Command asks the gateway to run one registry operation. Seq is echoed in the
// matching Reply.
type Command struct {
	Seq       uint64
	Op        Op
	ID        string
	Endpoint  string
	LocalAddr string
	PeerAddr  string
	Data      []byte
}

// ErrorCode classifies the outcome of a Command
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeNotFound
	CodeInvalidInput
	CodeIO
)

// String returns the string representation of ErrorCode
func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeInvalidInput:
		return "INVALID_INPUT"
	case CodeIO:
		return "IO"
	default:
		return "UNKNOWN"
	}
}

// Reply answers the Command with the same Seq.
type Reply struct {
	Seq     uint64
	Code    ErrorCode
	Message string
}

const (
	commandFieldSeq       protowire.Number = 1
	commandFieldOp        protowire.Number = 2
	commandFieldID        protowire.Number = 3
	commandFieldEndpoint  protowire.Number = 4
	commandFieldLocalAddr protowire.Number = 5
	commandFieldPeerAddr  protowire.Number = 6
	commandFieldData      protowire.Number = 7

	replyFieldSeq     protowire.Number = 1
	replyFieldCode    protowire.Number = 2
	replyFieldMessage protowire.Number = 3
)

func (c *Command) appendTo(b []byte) []byte {
	b = appendVarint(b, commandFieldSeq, c.Seq)
	b = appendVarint(b, commandFieldOp, uint64(c.Op))
	b = appendString(b, commandFieldID, c.ID)
	b = appendString(b, commandFieldEndpoint, c.Endpoint)
	b = appendString(b, commandFieldLocalAddr, c.LocalAddr)
	b = appendString(b, commandFieldPeerAddr, c.PeerAddr)
	b = appendBytes(b, commandFieldData, c.Data)
	return b
}

func (c *Command) decode(data []byte) error {
	*c = Command{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case commandFieldSeq:
			return consumeVarint(typ, b, &c.Seq)
		case commandFieldOp:
			var v uint64
			n, err := consumeVarint(typ, b, &v)
			c.Op = Op(v)
			return n, err
		case commandFieldID:
			return consumeString(typ, b, &c.ID)
		case commandFieldEndpoint:
			return consumeString(typ, b, &c.Endpoint)
		case commandFieldLocalAddr:
			return consumeString(typ, b, &c.LocalAddr)
		case commandFieldPeerAddr:
			return consumeString(typ, b, &c.PeerAddr)
		case commandFieldData:
			return consumeBytes(typ, b, &c.Data)
		}
		return skipField(num, typ, b)
	})
}

func (r *Reply) appendTo(b []byte) []byte {
	b = appendVarint(b, replyFieldSeq, r.Seq)
	b = appendVarint(b, replyFieldCode, uint64(r.Code))
	b = appendString(b, replyFieldMessage, r.Message)
	return b
}

func (r *Reply) decode(data []byte) error {
	*r = Reply{}
	return walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case replyFieldSeq:
			return consumeVarint(typ, b, &r.Seq)
		case replyFieldCode:
			var v uint64
			n, err := consumeVarint(typ, b, &v)
			r.Code = ErrorCode(v)
			return n, err
		case replyFieldMessage:
			return consumeString(typ, b, &r.Message)
		}
		return skipField(num, typ, b)
	})
}

// Frame is one gateway message. Exactly one of its fields is set.
type Frame struct {
	Event   *Event
	Command *Command
	Reply   *Reply
}

const (
	frameFieldEvent   protowire.Number = 1
	frameFieldCommand protowire.Number = 2
	frameFieldReply   protowire.Number = 3
)

var errEmptyFrame = errors.New("frame carries no payload")

// Encode encodes the frame into protobuf wire format
func (f *Frame) Encode() ([]byte, error) {
	switch {
	case f.Event != nil:
		if !f.Event.Type.valid() {
			return nil, fmt.Errorf("failed to encode frame: unknown event type %d", f.Event.Type)
		}
		return appendMessage(nil, frameFieldEvent, f.Event.appendTo(nil)), nil
	case f.Command != nil:
		return appendMessage(nil, frameFieldCommand, f.Command.appendTo(nil)), nil
	case f.Reply != nil:
		return appendMessage(nil, frameFieldReply, f.Reply.appendTo(nil)), nil
	}
	return nil, fmt.Errorf("failed to encode frame: %w", errEmptyFrame)
}

// Decode decodes protobuf wire format bytes into a frame
func (f *Frame) Decode(data []byte) error {
	*f = Frame{}
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var payload []byte
		switch num {
		case frameFieldEvent, frameFieldCommand, frameFieldReply:
			n, err := consumeBytes(typ, b, &payload)
			if err != nil {
				return 0, err
			}
			switch num {
			case frameFieldEvent:
				f.Event = &Event{}
				err = f.Event.Decode(payload)
			case frameFieldCommand:
				f.Command = &Command{}
				err = f.Command.decode(payload)
			case frameFieldReply:
				f.Reply = &Reply{}
				err = f.Reply.decode(payload)
			}
			return n, err
		}
		return skipField(num, typ, b)
	})
	if err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	if f.Event == nil && f.Command == nil && f.Reply == nil {
		return fmt.Errorf("failed to decode frame: %w", errEmptyFrame)
	}
	return nil
}
