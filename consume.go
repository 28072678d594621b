package csp

// schedule ensures a matching pass will run, on the loop. At most one pass is
// pending at a time, and a call during a pass causes it to run again.
func (c *Channel[T]) schedule() {
	if c.running {
		c.rerun = true
		return
	}
	if c.scheduled {
		return
	}
	c.scheduled = true
	if err := c.loop.Submit(c.consume); err != nil {
		c.scheduled = false
		c.fault(opConsume, err)
	}
}

func (c *Channel[T]) consume() {
	c.scheduled = false
	c.running = true
	defer func() { c.running = false }()
	for {
		c.rerun = false
		c.pass()
		if !c.rerun {
			return
		}
	}
}

func (c *Channel[T]) pass() {
	c.purge()
	for {
		c.fill()
		if !c.deliver() {
			break
		}
	}
	if c.State() != Open && c.isEmpty() {
		c.finish()
	}
}

// purge drops takes that are no longer pending, e.g. those won by another
// channel, in a select.
func (c *Channel[T]) purge() {
	n := c.takes.Len()
	for range n {
		op, _ := c.takes.Pop()
		if op.fut.State() == Pending {
			c.takes.Push(op)
		}
	}
}

// fill moves queued puts into the buffer, stopping at the first put a Fixed
// buffer refuses.
func (c *Channel[T]) fill() {
	for {
		op, ok := c.puts.Peek()
		if !ok {
			return
		}
		result, evicted := c.buffer.Push(op)
		switch result {
		case Pushed:
			c.puts.Pop()
			if c.buffer.Overflow() != Sliding {
				op.fut.resolve(Accepted, nil)
			}
		case Displaced:
			c.puts.Pop()
			evicted.fut.resolve(Evicted, nil)
		case Refused:
			if c.buffer.Overflow() == Fixed {
				return
			}
			c.puts.Pop()
			op.fut.resolve(Rejected, nil)
		}
	}
}

// deliver pairs buffered values with takes, oldest first, reporting whether
// any value was delivered.
func (c *Channel[T]) deliver() (progress bool) {
	for !c.buffer.IsEmpty() {
		op, ok := c.takes.Pop()
		if !ok {
			break
		}
		// claim first, so a take won elsewhere doesn't consume a value
		if !op.fut.claim() {
			continue
		}
		put, _ := c.buffer.Shift()
		progress = true
		value, err := c.apply(put.value)
		op.complete(c, value, err)
		put.fut.resolve(Accepted, nil)
	}
	return progress
}

func (c *Channel[T]) apply(value T) (result T, err error) {
	if c.transform == nil {
		return value, nil
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result, err = zero, c.fault(opTransform, &PanicError{Value: r})
		}
	}()
	result, err = c.transform(value)
	if err != nil {
		var zero T
		result, err = zero, c.fault(opTransform, err)
	}
	return result, err
}

// finish completes the close, once the channel is closed and empty. It may be
// called repeatedly.
func (c *Channel[T]) finish() {
	if c.State() != Closed {
		c.state.Store(int32(Closed))
		c.logger.Debug().Log(`channel drained`)
	}

	var zero T
	for _, op := range c.takes.Drain() {
		op.settle(c, zero, ErrClosed)
	}

	if ends := c.ends; len(ends) != 0 {
		c.ends = nil
		for _, fut := range ends {
			fut.resolve(struct{}{}, ErrEnded)
		}
		c.logger.Debug().Int(`listeners`, len(ends)).Log(`channel ended`)
	}

	c.closeFut.resolve(struct{}{}, nil)
}
