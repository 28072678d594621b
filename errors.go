package csp

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is the result of a put or take against a channel that has
	// been closed, or a take that was pending when the channel closed.
	ErrClosed = errors.New(`csp: channel closed`)

	// ErrEnded is the result of [Channel.End], and of a [Select] with no
	// remaining channels.
	ErrEnded = errors.New(`csp: channel ended`)

	// ErrRemoved is the result of an operation that was cancelled before it
	// was matched, e.g. via [Channel.Remove].
	ErrRemoved = errors.New(`csp: operation removed`)

	errNilLoop = errors.New(`csp: loop must not be nil`)
)

// FaultError models an unexpected failure, caught within a task running on
// behalf of a channel. Faults are logged, passed to [Config.OnFault], and,
// where an operation was affected (e.g. a transform failure), used as that
// operation's result.
type FaultError struct {
	// Cause is the underlying error, which will be a *PanicError if the
	// fault was a recovered panic.
	Cause error
	// Channel is the String value of the channel that raised the fault.
	Channel string
	// Op identifies where the fault occurred, e.g. "transform".
	Op string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf(`csp: %s: %s: %v`, e.Channel, e.Op, e.Cause)
}

func (e *FaultError) Unwrap() error { return e.Cause }

// PanicError wraps a value recovered from a panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf(`csp: recovered panic: %v`, e.Value)
}

// Unwrap returns the panic value, if it was an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
