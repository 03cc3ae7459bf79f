package tcp

import (
	"context"
	"fmt"
	"net"
)

// AddrError reports an address that could not be resolved.
type AddrError struct {
	Addr string
	Err  error
}

func (e *AddrError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Addr, e.Err)
}

func (e *AddrError) Unwrap() error {
	return e.Err
}

// Dial connects to endpoint.
func Dial(ctx context.Context, endpoint string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	return NewConn(conn), nil
}

// DialFrom connects to endpoint from the local address localAddr. Both
// addresses are resolved before any socket is created; a resolution failure
// is returned as *AddrError.
func DialFrom(ctx context.Context, localAddr, endpoint string) (*Conn, error) {
	laddr, err := Resolve(localAddr)
	if err != nil {
		return nil, err
	}
	raddr, err := Resolve(endpoint)
	if err != nil {
		return nil, err
	}

	d := net.Dialer{
		LocalAddr: laddr,
		Control:   reuseAddrControl,
	}
	conn, err := d.DialContext(ctx, "tcp", raddr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s from %s: %w", endpoint, localAddr, err)
	}
	return NewConn(conn), nil
}

// Resolve resolves addr to a concrete TCP address.
func Resolve(addr string) (*net.TCPAddr, error) {
	a, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, &AddrError{Addr: addr, Err: err}
	}
	return a, nil
}
