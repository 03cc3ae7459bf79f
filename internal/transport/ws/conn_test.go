package ws_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/omochice/tcp-registry/internal/transport/ws"
)

// pair returns the server and client side of one upgraded connection.
func pair(t *testing.T) (*ws.Conn, *ws.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan *ws.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		c, err := ws.Accept(conn, time.Second)
		if err != nil {
			conn.Close()
			accepted <- nil
			return
		}
		accepted <- c
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	client, err := ws.Dial(ctx, "ws://"+ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}

	server := <-accepted
	if server == nil {
		client.Close()
		t.Fatal("server side upgrade failed")
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return server, client
}

func TestConn_ClientToServer(t *testing.T) {
	server, client := pair(t)

	if err := client.Write([]byte("test message")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := server.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "test message" {
		t.Errorf("Read() = %q, want %q", string(data), "test message")
	}
}

func TestConn_ServerToClient(t *testing.T) {
	server, client := pair(t)

	for _, msg := range []string{"first", "second"} {
		if err := server.Write([]byte(msg)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	for _, want := range []string{"first", "second"} {
		data, err := client.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if string(data) != want {
			t.Errorf("Read() = %q, want %q", string(data), want)
		}
	}
}

func TestConn_CloseEndsRead(t *testing.T) {
	server, client := pair(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := server.Read(); err == nil {
		t.Error("expected error reading from closed connection, got nil")
	}
}

func TestConn_RemoteAddr(t *testing.T) {
	server, _ := pair(t)

	if server.RemoteAddr() == "" {
		t.Error("RemoteAddr() returned empty string")
	}
}

func TestAccept_NotWebSocket(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer ln.Close()

	result := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			result <- err
			return
		}
		defer conn.Close()
		_, err = ws.Accept(conn, time.Second)
		result <- err
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("hello\r\n\r\n")); err != nil {
		t.Fatalf("failed to write: %v", err)
	}

	select {
	case err := <-result:
		if err == nil {
			t.Error("expected upgrade error for plain TCP, got nil")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Accept")
	}
}
