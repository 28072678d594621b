package csp

import (
	"context"
	"sync"
)

// Loop is the cooperative runtime a [Channel] runs on. It is satisfied by
// *eventloop.Loop, from github.com/joeycumines/go-eventloop.
type Loop interface {
	// Submit enqueues a task, to run on the loop goroutine. Tasks submitted
	// from the same goroutine must run in submission order. An error
	// indicates the task will never run (e.g. the loop has terminated).
	Submit(func()) error
}

// Future is a single-assignment result cell, the deferred result of a put,
// take, close, or select.
//
// The first resolution wins, and later attempts are ignored. Resolution may
// be raced by several channels (see [Select]), which claim the future before
// resolving it, so that only one channel ever consumes a value on its
// behalf.
type Future[T any] struct {
	loop     Loop
	onPanic  func(any)
	done     chan struct{}
	value    T
	err      error
	handlers []func(T, error)
	mu       sync.Mutex
	state    OpState
}

// newFuture initializes a pending future. Handlers will be run on loop, or
// inline (by the resolver) if loop is nil. If onPanic is non-nil, it will be
// passed any value a handler panics with.
func newFuture[T any](loop Loop, onPanic func(any)) *Future[T] {
	return &Future[T]{
		loop:    loop,
		onPanic: onPanic,
		done:    make(chan struct{}),
	}
}

func resolvedFuture[T any](loop Loop, value T, err error) *Future[T] {
	f := newFuture[T](loop, nil)
	f.resolve(value, err)
	return f
}

// State returns the current resolution state.
func (f *Future[T]) State() OpState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Result returns the result, and true, if the future has resolved.
func (f *Future[T]) Result() (value T, err error, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Resolved {
		return
	}
	return f.value, f.err, true
}

// Done returns a channel that is closed once the future has resolved.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the future resolves, or ctx is done. It must not be
// called from the loop goroutine.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	value, err, _ := f.Result()
	return value, err
}

// Then registers fn to be called with the result. Handlers are run on the
// future's loop, in registration order, and never by the resolving call
// itself, unless the future has no loop, or the loop refuses the task.
func (f *Future[T]) Then(fn func(T, error)) {
	if fn == nil {
		return
	}
	f.mu.Lock()
	if f.state != Resolved {
		f.handlers = append(f.handlers, fn)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	f.dispatch(fn, value, err)
}

// claim transitions Pending to Resolving, returning false if the future was
// already claimed or resolved.
func (f *Future[T]) claim() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Pending {
		return false
	}
	f.state = Resolving
	return true
}

// resolve sets the result, returning false if the future had already been
// resolved. Callers racing for the future must claim it first.
func (f *Future[T]) resolve(value T, err error) bool {
	f.mu.Lock()
	if f.state == Resolved {
		f.mu.Unlock()
		return false
	}
	f.state = Resolved
	f.value = value
	f.err = err
	handlers := f.handlers
	f.handlers = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range handlers {
		f.dispatch(fn, value, err)
	}
	return true
}

func (f *Future[T]) dispatch(fn func(T, error), value T, err error) {
	task := func() { f.call(fn, value, err) }
	if f.loop != nil && f.loop.Submit(task) == nil {
		return
	}
	task()
}

func (f *Future[T]) call(fn func(T, error), value T, err error) {
	if f.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				f.onPanic(r)
			}
		}()
	}
	fn(value, err)
}
