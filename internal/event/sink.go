// Package event provides sinks that receive registry events.
package event

import (
	"errors"

	"github.com/omochice/tcp-registry/pkg/protocol"
)

// ErrClosed is returned by Emit on a sink that no longer accepts events.
var ErrClosed = errors.New("event sink closed")

// Sink receives events from the registry. Emit must not block on the
// consumer; the registry ignores any error it returns.
type Sink interface {
	Emit(ev protocol.Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev protocol.Event)

// Emit implements Sink.
func (f SinkFunc) Emit(ev protocol.Event) error {
	f(ev)
	return nil
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(protocol.Event) error { return nil }
