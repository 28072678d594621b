package csp

import (
	"errors"
	"sync/atomic"
)

// Pipe forwards every value taken from c to each of targets, in order.
// Values are forwarded using [Channel.Put], without waiting for the puts to
// resolve. Nil targets, and c itself, are ignored.
//
// If cascadeClose is true (for any call), once c is closed and empty, each
// target is closed, using [Channel.Close] with keepDraining set.
//
// Returns the last target, or c, if there were no valid targets, to
// facilitate chaining.
func (c *Channel[T]) Pipe(cascadeClose bool, targets ...*Channel[T]) *Channel[T] {
	var valid []*Channel[T]
	for _, target := range targets {
		if target != nil && target != c {
			valid = append(valid, target)
		}
	}
	if len(valid) == 0 {
		return c
	}
	if err := c.loop.Submit(func() { c.pipe(cascadeClose, valid) }); err != nil {
		c.fault(opSubmit, err)
	}
	return valid[len(valid)-1]
}

// Unpipe stops forwarding to targets. Once no targets remain, c stops
// taking values. Returns c.
func (c *Channel[T]) Unpipe(targets ...*Channel[T]) *Channel[T] {
	if err := c.loop.Submit(func() { c.unpipe(targets) }); err != nil {
		c.fault(opSubmit, err)
	}
	return c
}

// Through pipes c into a new, unbounded, channel, on the same loop, which
// applies fn to each value. The new channel is closed once c is closed and
// empty.
func (c *Channel[T]) Through(fn func(T) (T, error)) *Channel[T] {
	out, err := New(c.loop, &Config[T]{
		Transform: fn,
		Logger:    c.baseLogger,
		OnFault:   c.onFault,
	})
	if err != nil {
		// unreachable, c.loop is non-nil
		panic(err)
	}
	return c.Pipe(true, out)
}

// Merge returns a new, unbounded, channel on loop, that receives every value
// from each of sources, in order, per source. The merged channel is closed
// once every source is closed and empty.
//
// Panics if loop is nil.
func Merge[T any](loop Loop, sources ...*Channel[T]) *Channel[T] {
	out, err := New[T](loop, nil)
	if err != nil {
		panic(err)
	}

	var valid []*Channel[T]
	for _, src := range sources {
		if src != nil {
			valid = append(valid, src)
		}
	}
	if len(valid) == 0 {
		out.Close(true)
		return out
	}

	var remaining atomic.Int64
	remaining.Store(int64(len(valid)))
	for _, src := range valid {
		src.Pipe(false, out)
		// any values forwarded by src were put before the close
		src.End().Then(func(struct{}, error) {
			if remaining.Add(-1) == 0 {
				out.Close(true)
			}
		})
	}

	return out
}

func (c *Channel[T]) pipe(cascadeClose bool, targets []*Channel[T]) {
	c.targets = append(c.targets, targets...)
	if cascadeClose {
		c.cascade = true
	}
	if c.flowing || c.State() == Closed {
		return
	}
	c.flowing = true
	c.logger.Debug().Int(`targets`, len(c.targets)).Log(`pipe started`)
	c.pumpNext()
}

func (c *Channel[T]) unpipe(targets []*Channel[T]) {
	for _, target := range targets {
		for i, v := range c.targets {
			if v == target {
				c.targets = append(c.targets[:i], c.targets[i+1:]...)
				break
			}
		}
	}
	if len(c.targets) == 0 || c.State() == Closed {
		c.stopPump()
	}
}

// pumpNext registers the take that forwards the next value. Forwarding
// happens synchronously when the take resolves, so stopping the pump can
// never strand a value that was already taken.
func (c *Channel[T]) pumpNext() {
	op := &takeOp[T]{fut: newFuture[T](nil, nil)}
	op.direct = func(value T, err error) { c.forward(op, value, err) }
	c.pump = op
	c.take(op)
}

func (c *Channel[T]) stopPump() {
	if !c.flowing {
		return
	}
	c.flowing = false
	if op := c.pump; op != nil {
		c.pump = nil
		var zero T
		op.settle(c, zero, ErrRemoved)
	}
	c.logger.Debug().Log(`pipe stopped`)
}

func (c *Channel[T]) forward(op *takeOp[T], value T, err error) {
	if c.pump != op {
		// stopped
		return
	}
	c.pump = nil

	switch {
	case err == nil:
		for _, target := range c.targets {
			target.Put(value)
		}
	case errors.Is(err, ErrClosed):
		c.flowing = false
		c.logger.Debug().Bool(`cascade`, c.cascade).Log(`pipe source closed`)
		if c.cascade {
			for _, target := range c.targets {
				target.Close(true)
			}
		}
		return
	default:
		// already reported, if it was a transform fault
		var fault *FaultError
		if !errors.As(err, &fault) {
			c.fault(opForward, err)
		}
	}

	if c.flowing {
		c.pumpNext()
	}
}
