// Package opt provides a value that is either absent or present.
//
// Builder descriptors use Option for every optional field so that "not set"
// stays distinct from any concrete value, including the zero value. An
// absent field defers to the encoder's own default.
package opt

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Option holds a value of type T or nothing.
// The zero Option is absent.
type Option[T any] struct {
	value T
	ok    bool
}

// Some returns a present Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the held value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool {
	return o.ok
}

// IsNone reports whether the Option is absent.
func (o Option[T]) IsNone() bool {
	return !o.ok
}

// Or returns the held value, or def when absent.
func (o Option[T]) Or(def T) T {
	if o.ok {
		return o.value
	}
	return def
}

// If calls fn with the held value when present.
func (o Option[T]) If(fn func(T)) {
	if o.ok {
		fn(o.value)
	}
}

// String implements fmt.Stringer.
func (o Option[T]) String() string {
	if !o.ok {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

// UnmarshalYAML decodes a present value. The YAML decoder never calls it
// for an explicit null, which therefore leaves the Option absent.
func (o *Option[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
