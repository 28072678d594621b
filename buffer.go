package csp

import (
	"fmt"

	"github.com/joeycumines/go-csp/internal/ringbuffer"
)

// Overflow is the policy a [Buffer] applies once full.
type Overflow int

const (
	// Fixed refuses new items while full. The channel keeps the refused put
	// queued, until a take frees a slot.
	Fixed Overflow = iota
	// Dropping refuses new items while full. The channel rejects the refused
	// put, and the value is discarded.
	Dropping
	// Sliding evicts the oldest item to make room for the new one.
	Sliding
)

func (o Overflow) String() string {
	switch o {
	case Fixed:
		return "Fixed"
	case Dropping:
		return "Dropping"
	case Sliding:
		return "Sliding"
	default:
		return fmt.Sprintf("Overflow(%d)", int(o))
	}
}

func (o Overflow) valid() bool {
	return o >= Fixed && o <= Sliding
}

// PushResult is the outcome of [Buffer.Push].
type PushResult int

const (
	// Pushed indicates the item was appended.
	Pushed PushResult = iota
	// Refused indicates the buffer was full, and the item was not appended.
	Refused
	// Displaced indicates the buffer was full, and the oldest item was
	// evicted, to append the new item.
	Displaced
)

// Buffer is an ordered, optionally bounded, collection of items, with an
// overflow policy. A capacity of 0 means unbounded.
//
// Buffer is not safe for concurrent use.
type Buffer[E any] struct {
	items    ringbuffer.Ring[E]
	capacity int
	overflow Overflow
}

// NewBuffer initializes a Buffer, returning an error if capacity is negative
// or overflow is unknown.
func NewBuffer[E any](capacity int, overflow Overflow) (*Buffer[E], error) {
	if capacity < 0 {
		return nil, fmt.Errorf(`csp: negative buffer capacity: %d`, capacity)
	}
	if !overflow.valid() {
		return nil, fmt.Errorf(`csp: unknown overflow policy: %s`, overflow)
	}
	return &Buffer[E]{capacity: capacity, overflow: overflow}, nil
}

// Push attempts to append item. If the result is [Displaced], the evicted
// item is also returned.
func (b *Buffer[E]) Push(item E) (result PushResult, evicted E) {
	if !b.IsFull() {
		b.items.Push(item)
		return Pushed, evicted
	}
	switch b.overflow {
	case Sliding:
		evicted, _ = b.items.Pop()
		b.items.Push(item)
		return Displaced, evicted
	default:
		return Refused, evicted
	}
}

// Shift removes and returns the oldest item.
func (b *Buffer[E]) Shift() (E, bool) { return b.items.Pop() }

// Peek returns the oldest item, without removing it.
func (b *Buffer[E]) Peek() (E, bool) { return b.items.Peek() }

// Remove removes the oldest item matching fn, reporting whether one was
// found.
func (b *Buffer[E]) Remove(fn func(E) bool) bool {
	for i := range b.items.Len() {
		if fn(b.items.At(i)) {
			b.items.RemoveAt(i)
			return true
		}
	}
	return false
}

// Flush removes and returns every item, oldest first.
func (b *Buffer[E]) Flush() []E { return b.items.Drain() }

func (b *Buffer[E]) IsFull() bool { return b.capacity > 0 && b.items.Len() >= b.capacity }

func (b *Buffer[E]) IsEmpty() bool { return b.items.Len() == 0 }

func (b *Buffer[E]) Len() int { return b.items.Len() }

// Cap returns the capacity, 0 meaning unbounded.
func (b *Buffer[E]) Cap() int { return b.capacity }

func (b *Buffer[E]) Overflow() Overflow { return b.overflow }
