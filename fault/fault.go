// Package fault defines the error taxonomy shared by transports, the
// encoder and the printer.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// Transport covers open, write and flush failures of the output channel.
	Transport Kind = iota + 1
	// Validation covers out-of-range input detected before anything is written.
	Validation
	// Content covers commands that cannot be materialized into bytes.
	Content
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Transport:
		return "transport"
	case Validation:
		return "validation"
	case Content:
		return "content"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrTransport  = errors.New("transport error")
	ErrValidation = errors.New("validation error")
	ErrContent    = errors.New("content error")
)

// Error is a classified failure carrying the operation name and, when there
// is one, the offending value.
type Error struct {
	Kind  Kind
	Op    string
	Value any
	Err   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Value != nil {
		msg += fmt.Sprintf(" (value %v)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransport:
		return e.Kind == Transport
	case ErrValidation:
		return e.Kind == Validation
	case ErrContent:
		return e.Kind == Content
	}
	return false
}

// Transportf returns a Transport error for op wrapping err.
func Transportf(op string, err error) *Error {
	return &Error{Kind: Transport, Op: op, Err: err}
}

// Invalid returns a Validation error for op rejecting value.
func Invalid(op string, value any, format string, args ...any) *Error {
	return &Error{Kind: Validation, Op: op, Value: value, Err: fmt.Errorf(format, args...)}
}

// Contentf returns a Content error for op.
func Contentf(op string, err error) *Error {
	return &Error{Kind: Content, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
