package registry

import (
	"errors"
	"fmt"

	"github.com/omochice/tcp-registry/pkg/protocol"
)

var (
	// ErrNotFound is returned for an unknown ID or an unknown peer address.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for malformed addresses and for a peer
	// address that does not fit the connection kind.
	ErrInvalidInput = errors.New("invalid input")
)

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// CodeOf classifies err for the wire. Anything that is neither
// ErrNotFound nor ErrInvalidInput is a transport failure.
func CodeOf(err error) protocol.ErrorCode {
	switch {
	case err == nil:
		return protocol.CodeOK
	case errors.Is(err, ErrNotFound):
		return protocol.CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return protocol.CodeInvalidInput
	default:
		return protocol.CodeIO
	}
}

// remoteError is an error received over the wire. It matches the sentinel
// its code maps to.
type remoteError struct {
	code protocol.ErrorCode
	msg  string
}

func (e *remoteError) Error() string {
	return e.msg
}

func (e *remoteError) Is(target error) bool {
	switch e.code {
	case protocol.CodeNotFound:
		return target == ErrNotFound
	case protocol.CodeInvalidInput:
		return target == ErrInvalidInput
	}
	return false
}

// ErrorFromCode rebuilds an error from a reply code and message, so that
// errors.Is(err, ErrNotFound) holds on both sides of the gateway.
func ErrorFromCode(code protocol.ErrorCode, msg string) error {
	if code == protocol.CodeOK {
		return nil
	}
	return &remoteError{code: code, msg: msg}
}
