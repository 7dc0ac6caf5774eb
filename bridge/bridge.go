// Package bridge resolves values produced in another execution context.
//
// A Producer is invoked exactly once per operation and hands back a Future.
// The caller awaits that Future under its own context; if the context ends
// first, the result is abandoned and nothing downstream runs. There is no
// retry, no polling and no internal timeout: a Future that never resolves
// blocks until the caller's context is done.
package bridge

import (
	"context"
	"errors"
	"sync"
)

// ErrNilFuture is returned when a producer hands back no future.
var ErrNilFuture = errors.New("producer returned a nil future")

// Future is a single-shot result.
type Future[T any] interface {
	// Await blocks until the result is available or ctx is done.
	Await(ctx context.Context) (T, error)
}

// Producer starts the computation of a value and returns its Future.
type Producer[T any] func() Future[T]

// Resolve invokes p exactly once and awaits its result.
func Resolve[T any](ctx context.Context, p Producer[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f := p()
	if f == nil {
		return zero, ErrNilFuture
	}
	return f.Await(ctx)
}

// Promise is a Future completed by an explicit Resolve or Reject. Only the
// first completion counts. A Promise may be awaited any number of times and
// from any goroutine.
type Promise[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// NewPromise returns an unresolved Promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolve completes the promise with v. It reports whether this call
// completed it.
func (p *Promise[T]) Resolve(v T) bool {
	return p.complete(v, nil)
}

// Reject completes the promise with err. It reports whether this call
// completed it.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.complete(zero, err)
}

func (p *Promise[T]) complete(v T, err error) bool {
	completed := false
	p.once.Do(func() {
		p.value, p.err = v, err
		close(p.done)
		completed = true
	})
	return completed
}

// Done is closed once the promise completes.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Await implements Future.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	default:
	}
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Go runs fn in a new goroutine and returns a Future for its result.
func Go[T any](fn func() (T, error)) Future[T] {
	p := NewPromise[T]()
	go func() {
		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}

// Ready returns an already resolved Future.
func Ready[T any](v T) Future[T] {
	p := NewPromise[T]()
	p.Resolve(v)
	return p
}

// Failed returns an already rejected Future.
func Failed[T any](err error) Future[T] {
	p := NewPromise[T]()
	p.Reject(err)
	return p
}

// Value returns a Producer whose Future is already resolved with v.
func Value[T any](v T) Producer[T] {
	return func() Future[T] { return Ready(v) }
}

// Async returns a Producer that runs fn in a new goroutine on each call.
func Async[T any](fn func() (T, error)) Producer[T] {
	return func() Future[T] { return Go(fn) }
}
