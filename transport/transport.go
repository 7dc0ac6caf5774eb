// Package transport provides the byte sinks a printer writes to.
//
// Every constructor opens its channel eagerly, so an unreachable host or an
// unwritable path is reported by Open and never deferred to the first write.
// Transports do not retry and know nothing about the printer protocol.
//
// A transport is owned by exactly one printer. Claim marks that ownership;
// a second Claim fails with ErrAlreadyBound. Transports carry no lock on the
// write path: they may be handed to another goroutine, but calls must not
// overlap.
package transport

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
)

// Transport is the capability set every output channel provides.
type Transport interface {
	// Write sends data in order. A failure is returned at once.
	Write(data []byte) (int, error)

	// Flush forces any buffered bytes to the underlying medium.
	Flush() error

	// Close flushes and releases the channel.
	Close() error
}

// Claimer is implemented by transports that enforce single ownership.
type Claimer interface {
	Claim() error
}

// ErrAlreadyBound is returned when a transport is claimed twice.
var ErrAlreadyBound = errors.New("transport already bound to a printer")

// binding tracks whether a transport has been handed to a printer.
type binding struct {
	bound atomic.Bool
}

// Claim marks the transport as owned. Only the first call succeeds.
func (b *binding) Claim() error {
	if b.bound.Swap(true) {
		return ErrAlreadyBound
	}
	return nil
}

// Option configures a transport.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for open and close events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// writeAll writes data to w, turning a short write into an error.
func writeAll(w io.Writer, data []byte) (int, error) {
	n, err := w.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	return n, err
}
