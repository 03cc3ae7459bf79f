package protocol_test

import (
	"bytes"
	"testing"

	"github.com/omochice/tcp-registry/pkg/protocol"
)

func TestFrame_Command(t *testing.T) {
	cmd := &protocol.Command{
		Seq:       7,
		Op:        protocol.OpConnectWithBind,
		ID:        "c1",
		Endpoint:  "example.com:1234",
		LocalAddr: "192.168.1.100:0",
		PeerAddr:  "",
		Data:      []byte{0x00, 0xff},
	}
	data, err := (&protocol.Frame{Command: cmd}).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var f protocol.Frame
	if err := f.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Command == nil {
		t.Fatal("decoded frame has no command")
	}
	if f.Event != nil || f.Reply != nil {
		t.Error("decoded frame carries more than one payload")
	}
	got := f.Command
	if got.Seq != cmd.Seq || got.Op != cmd.Op || got.ID != cmd.ID {
		t.Errorf("header mismatch: got %+v, want %+v", got, cmd)
	}
	if got.Endpoint != cmd.Endpoint || got.LocalAddr != cmd.LocalAddr {
		t.Errorf("address mismatch: got %+v, want %+v", got, cmd)
	}
	if !bytes.Equal(got.Data, cmd.Data) {
		t.Errorf("Data = %v, want %v", got.Data, cmd.Data)
	}
}

func TestFrame_Reply(t *testing.T) {
	data, err := (&protocol.Frame{Reply: &protocol.Reply{Seq: 3, Code: protocol.CodeNotFound, Message: "ID x not found"}}).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var f protocol.Frame
	if err := f.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Reply == nil {
		t.Fatal("decoded frame has no reply")
	}
	if f.Reply.Seq != 3 || f.Reply.Code != protocol.CodeNotFound || f.Reply.Message != "ID x not found" {
		t.Errorf("Reply = %+v", f.Reply)
	}
}

func TestFrame_Event(t *testing.T) {
	ev := protocol.UnbindEvent("srv")
	data, err := (&protocol.Frame{Event: &ev}).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var f protocol.Frame
	if err := f.Decode(data); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Event == nil || f.Event.Type != protocol.EventUnbind || f.Event.ID != "srv" {
		t.Errorf("Event = %+v", f.Event)
	}
}

func TestFrame_Empty(t *testing.T) {
	if _, err := (&protocol.Frame{}).Encode(); err == nil {
		t.Error("expected error encoding empty frame, got nil")
	}

	var f protocol.Frame
	if err := f.Decode(nil); err == nil {
		t.Error("expected error decoding empty frame, got nil")
	}
}

func TestParseOp(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    protocol.Op
		wantErr bool
	}{
		{"connect", "connect", protocol.OpConnect, false},
		{"connect with bind", "connect_with_bind", protocol.OpConnectWithBind, false},
		{"bind", "bind", protocol.OpBind, false},
		{"unbind", "unbind", protocol.OpUnbind, false},
		{"disconnect", "disconnect", protocol.OpDisconnect, false},
		{"send", "send", protocol.OpSend, false},
		{"unknown", "listen", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.ParseOp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code protocol.ErrorCode
		want string
	}{
		{protocol.CodeOK, "OK"},
		{protocol.CodeNotFound, "NOT_FOUND"},
		{protocol.CodeInvalidInput, "INVALID_INPUT"},
		{protocol.CodeIO, "IO"},
		{protocol.ErrorCode(12), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.String(); got != tt.want {
				t.Errorf("ErrorCode.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
