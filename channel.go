package csp

import (
	"strconv"
	"sync/atomic"

	"github.com/joeycumines/go-csp/internal/ringbuffer"
	"github.com/joeycumines/logiface"
)

var lastChannelID atomic.Uint64

type (
	// Channel is a CSP channel, see the package docs for details.
	//
	// All methods are safe to call from any goroutine, except where
	// documented otherwise.
	Channel[T any] struct {
		loop       Loop
		logger     *logiface.Logger[logiface.Event]
		baseLogger *logiface.Logger[logiface.Event]
		onFault    func(err error)
		transform  func(T) (T, error)
		buffer     *Buffer[*putOp[T]]
		closeFut   *Future[struct{}]
		pump       *takeOp[T]
		name       string
		ends       []*Future[struct{}]
		targets    []*Channel[T]
		puts       ringbuffer.Ring[*putOp[T]]
		takes      ringbuffer.Ring[*takeOp[T]]
		id         uint64
		state      atomic.Int32
		// flags, only accessed on the loop goroutine
		closeRequested bool
		scheduled      bool
		running        bool
		rerun          bool
		cascade        bool
		flowing        bool
	}

	putOp[T any] struct {
		fut   *Future[PutResult]
		value T
	}

	// takeOp may be shared between channels, see Select.
	takeOp[T any] struct {
		fut *Future[T]
		// source is the channel that resolved the op, set prior to resolving
		source *Channel[T]
		// direct is called synchronously, immediately after the op resolves,
		// by whatever resolved it
		direct func(value T, err error)
	}
)

// New initializes a new Channel, running on loop. The cfg is optional.
func New[T any](loop Loop, cfg *Config[T]) (*Channel[T], error) {
	if loop == nil {
		return nil, errNilLoop
	}
	if cfg == nil {
		cfg = new(Config[T])
	}

	buffer, err := NewBuffer[*putOp[T]](cfg.Capacity, cfg.Overflow)
	if err != nil {
		return nil, err
	}

	c := &Channel[T]{
		loop:       loop,
		baseLogger: cfg.Logger,
		onFault:    cfg.OnFault,
		transform:  cfg.Transform,
		buffer:     buffer,
		id:         lastChannelID.Add(1),
		name:       cfg.Name,
	}
	if c.name == `` {
		c.name = strconv.FormatUint(c.id, 10)
	}
	c.logger = cfg.Logger.Clone().
		Uint64(`channel`, c.id).
		Str(`name`, c.name).
		Logger()
	c.closeFut = newFuture[struct{}](loop, c.handlerPanic)

	return c, nil
}

// ID returns the process-wide unique identifier of the channel. IDs are
// allocated sequentially, starting at 1.
func (c *Channel[T]) ID() uint64 { return c.id }

// Name returns the configured name, or the decimal ID.
func (c *Channel[T]) Name() string { return c.name }

func (c *Channel[T]) String() string {
	return `csp.Channel[` + strconv.FormatUint(c.id, 10) + `:` + c.name + `]`
}

// State returns the current lifecycle state.
func (c *Channel[T]) State() ChannelState { return ChannelState(c.state.Load()) }

// Len returns the number of buffered values. It must only be called from the
// loop goroutine.
func (c *Channel[T]) Len() int { return c.buffer.Len() }

// Put sends value to the channel. The result is [Accepted] once the value
// has been buffered or, under the [Sliding] policy, once it has been
// delivered to a taker.
//
// If the channel isn't [Open], the result is [Rejected], with [ErrClosed].
// A full [Dropping] buffer results in [Rejected], with a nil error. A value
// displaced from a full [Sliding] buffer results in [Evicted].
func (c *Channel[T]) Put(value T) *Future[PutResult] {
	op := &putOp[T]{
		fut:   newFuture[PutResult](c.loop, c.handlerPanic),
		value: value,
	}
	if err := c.loop.Submit(func() { c.put(op) }); err != nil {
		op.fut.resolve(Rejected, c.fault(opSubmit, err))
	}
	return op.fut
}

// Take receives the next value from the channel, after applying the
// transform, if any. The result is [ErrClosed] if the channel is (or
// becomes) closed and empty.
func (c *Channel[T]) Take() *Future[T] {
	op := &takeOp[T]{fut: newFuture[T](c.loop, c.handlerPanic)}
	c.submitTake(op)
	return op.fut
}

// Remove cancels a pending put, returned by [Channel.Put] on this channel.
// The result is true if the put was cancelled, in which case it resolves
// [Rejected], with [ErrRemoved]. Puts that have already resolved (or been
// claimed by the matching loop) cannot be removed.
func (c *Channel[T]) Remove(put *Future[PutResult]) *Future[bool] {
	result := newFuture[bool](c.loop, c.handlerPanic)
	if err := c.loop.Submit(func() { result.resolve(c.remove(put), nil) }); err != nil {
		result.resolve(false, c.fault(opSubmit, err))
	}
	return result
}

// End returns a future that resolves with [ErrEnded], once the channel is
// closed and empty.
func (c *Channel[T]) End() *Future[struct{}] {
	fut := newFuture[struct{}](c.loop, c.handlerPanic)
	if err := c.loop.Submit(func() { c.end(fut) }); err != nil {
		fut.resolve(struct{}{}, c.fault(opSubmit, err))
	}
	return fut
}

// Close closes the channel. If keepDraining is false, every buffered value,
// pending put, and pending take resolves with [ErrClosed], and the channel
// is immediately [Closed]. Otherwise, the channel stops accepting puts, and
// becomes [Closed] once every remaining value has been taken.
//
// Only the first call has any effect. All calls return the same future,
// which resolves once the channel is [Closed].
func (c *Channel[T]) Close(keepDraining bool) *Future[struct{}] {
	if err := c.loop.Submit(func() { c.close(keepDraining) }); err != nil {
		c.closeFut.resolve(struct{}{}, c.fault(opSubmit, err))
	}
	return c.closeFut
}

func (c *Channel[T]) submitTake(op *takeOp[T]) {
	if err := c.loop.Submit(func() { c.take(op) }); err != nil {
		var zero T
		op.settle(c, zero, c.fault(opSubmit, err))
	}
}

func (c *Channel[T]) put(op *putOp[T]) {
	if c.State() != Open {
		op.fut.resolve(Rejected, ErrClosed)
		return
	}
	c.puts.Push(op)
	c.schedule()
}

func (c *Channel[T]) take(op *takeOp[T]) {
	if op.fut.State() != Pending {
		return
	}
	if c.State() != Open && c.isEmpty() {
		var zero T
		op.settle(c, zero, ErrClosed)
		return
	}
	c.takes.Push(op)
	c.schedule()
}

func (c *Channel[T]) remove(put *Future[PutResult]) bool {
	if put == nil || put.State() != Pending {
		return false
	}
	found := false
	for i := range c.puts.Len() {
		if c.puts.At(i).fut == put {
			c.puts.RemoveAt(i)
			found = true
			break
		}
	}
	if !found {
		found = c.buffer.Remove(func(op *putOp[T]) bool { return op.fut == put })
	}
	if !found {
		return false
	}
	put.resolve(Rejected, ErrRemoved)
	// may free a slot, or leave a closing channel empty
	c.schedule()
	return true
}

func (c *Channel[T]) end(fut *Future[struct{}]) {
	if c.State() == Closed {
		fut.resolve(struct{}{}, ErrEnded)
		return
	}
	c.ends = append(c.ends, fut)
	if c.State() != Open {
		c.schedule()
	}
}

func (c *Channel[T]) close(keepDraining bool) {
	if c.closeRequested {
		return
	}
	c.closeRequested = true

	if keepDraining {
		c.logger.Debug().Log(`channel closing`)
		c.state.Store(int32(Closing))
		c.schedule()
		return
	}

	c.logger.Debug().Log(`channel closing (flush)`)
	c.state.Store(int32(Closed))
	for _, op := range c.buffer.Flush() {
		op.fut.resolve(Rejected, ErrClosed)
	}
	for _, op := range c.puts.Drain() {
		op.fut.resolve(Rejected, ErrClosed)
	}
	c.finish()
}

// isEmpty reports whether there are no values left to deliver.
func (c *Channel[T]) isEmpty() bool { return c.buffer.IsEmpty() && c.puts.Len() == 0 }

// settle claims then resolves op, on behalf of c, returning false if the op
// had already been claimed.
func (op *takeOp[T]) settle(c *Channel[T], value T, err error) bool {
	if !op.fut.claim() {
		return false
	}
	op.complete(c, value, err)
	return true
}

// complete resolves a claimed op.
func (op *takeOp[T]) complete(c *Channel[T], value T, err error) {
	op.source = c
	op.fut.resolve(value, err)
	if op.direct != nil {
		op.direct(value, err)
	}
}
