package csp

import (
	"context"
	"errors"
	"iter"

	"golang.org/x/sync/errgroup"
)

// From returns a new channel on loop, buffering each of values. Unless
// keepOpen is true, the channel is closed (draining), so it ends once every
// value has been taken.
func From[T any](loop Loop, values []T, keepOpen bool) (*Channel[T], error) {
	c, err := New[T](loop, &Config[T]{Capacity: len(values)})
	if err != nil {
		return nil, err
	}
	for _, v := range values {
		c.Put(v)
	}
	if !keepOpen {
		c.Close(true)
	}
	return c, nil
}

// Each takes values from c, until it is closed and empty, calling fn with
// each, from up to concurrency goroutines. Values that failed to transform
// are skipped (they are reported as faults).
//
// Returns nil once the channel is closed, otherwise the first error returned
// by fn, or the context's error. Each must not be called from the loop
// goroutine.
func (c *Channel[T]) Each(ctx context.Context, concurrency int, fn func(ctx context.Context, value T) error) error {
	concurrency = max(concurrency, 1)
	g, ctx := errgroup.WithContext(ctx)
	for range concurrency {
		g.Go(func() error {
			for {
				value, err := c.recv(ctx)
				if err != nil {
					if errors.Is(err, ErrClosed) {
						return nil
					}
					var fault *FaultError
					if errors.As(err, &fault) && fault.Op == opTransform {
						continue
					}
					return err
				}
				if err := fn(ctx, value); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

// Values returns an iterator over the values taken from c, which stops once
// the channel is closed and empty, or ctx is done. It must not be used from
// the loop goroutine.
func (c *Channel[T]) Values(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			value, err := c.recv(ctx)
			if err != nil {
				var fault *FaultError
				if errors.As(err, &fault) && fault.Op == opTransform {
					continue
				}
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}

// recv performs a blocking take. If ctx is done first, the take is
// cancelled, unless it was already claimed, in which case the value is
// still returned.
func (c *Channel[T]) recv(ctx context.Context) (T, error) {
	op := &takeOp[T]{fut: newFuture[T](nil, nil)}
	c.submitTake(op)
	select {
	case <-op.fut.Done():
	case <-ctx.Done():
		if op.fut.claim() {
			var zero T
			op.complete(c, zero, ctx.Err())
			// drop it from the take queue
			_ = c.loop.Submit(c.purge)
		} else {
			<-op.fut.Done()
		}
	}
	value, err, _ := op.fut.Result()
	return value, err
}
