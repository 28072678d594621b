package csp

import (
	"github.com/joeycumines/logiface"
)

// Config models optional configuration, for [New].
type Config[T any] struct {
	// Transform is applied to each value as it is delivered to a taker. An
	// error (or panic) results in a *FaultError, as the result of that take.
	Transform func(T) (T, error)

	// Logger receives debug logs for lifecycle transitions, and error logs
	// for faults. Defaults to nil (disabled).
	Logger *logiface.Logger[logiface.Event]

	// OnFault will be called with each *FaultError, if set. It is called from
	// the goroutine that encountered the fault, usually the loop goroutine.
	OnFault func(err error)

	// Name identifies the channel, in logs and errors. Defaults to the
	// decimal channel ID.
	Name string

	// Capacity is the size of the buffer. Defaults to 0 (unbounded).
	Capacity int

	// Overflow is the policy applied when the buffer is full. Defaults to
	// Fixed.
	Overflow Overflow
}
