package csp

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

const (
	opSubmit    = `submit`
	opConsume   = `consume`
	opTransform = `transform`
	opHandler   = `handler`
	opForward   = `forward`
)

// faultLogLimiter bounds the volume of fault logs, per channel and op.
// Faults over the limit are still reported via Config.OnFault.
var faultLogLimiter = catrate.NewLimiter(map[time.Duration]int{
	time.Second: 10,
	time.Minute: 100,
})

type faultCategory struct {
	op      string
	channel uint64
}

// fault builds a *FaultError, then logs and reports it.
func (c *Channel[T]) fault(op string, cause error) *FaultError {
	err := &FaultError{
		Cause:   cause,
		Channel: c.String(),
		Op:      op,
	}

	if _, ok := faultLogLimiter.Allow(faultCategory{op: op, channel: c.id}); ok {
		c.logger.Err().
			Err(cause).
			Str(`op`, op).
			Log(`channel fault`)
	}

	if c.onFault != nil {
		c.onFault(err)
	}

	return err
}

// handlerPanic is passed to futures created by the channel, so panicking
// Then handlers are reported as faults.
func (c *Channel[T]) handlerPanic(r any) {
	c.fault(opHandler, &PanicError{Value: r})
}
