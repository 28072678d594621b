package csp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_invalid(t *testing.T) {
	_, err := New[int](nil, nil)
	assert.ErrorIs(t, err, errNilLoop)

	loop := new(manualLoop)
	_, err = New(loop, &Config[int]{Capacity: -2})
	assert.Error(t, err)
	_, err = New(loop, &Config[int]{Overflow: Overflow(-1)})
	assert.Error(t, err)
}

func TestChannel_identity(t *testing.T) {
	loop := new(manualLoop)
	a := mustNew[int](t, loop, nil)
	b := mustNew(t, loop, &Config[int]{Name: `named`})
	assert.Equal(t, a.ID()+1, b.ID())
	assert.Equal(t, fmt.Sprint(a.ID()), a.Name())
	assert.Equal(t, `named`, b.Name())
	assert.Equal(t, fmt.Sprintf(`csp.Channel[%d:named]`, b.ID()), b.String())
	assert.Equal(t, Open, a.State())
}

func TestChannel_fifo(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew[int](t, loop, nil)

	// takes before puts, and puts before takes
	t1 := c.Take()
	p1 := c.Put(1)
	p2 := c.Put(2)
	p3 := c.Put(3)
	t2 := c.Take()
	t3 := c.Take()
	loop.run()

	for i, take := range []*Future[int]{t1, t2, t3} {
		value, err := mustResult(t, take)
		require.NoError(t, err)
		assert.Equal(t, i+1, value)
	}
	for _, put := range []*Future[PutResult]{p1, p2, p3} {
		result, err := mustResult(t, put)
		require.NoError(t, err)
		assert.Equal(t, Accepted, result)
	}
	assert.Equal(t, 0, c.Len())
}

func TestChannel_fixedOverflow(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 1})

	p1 := c.Put(1)
	p2 := c.Put(2)
	loop.run()

	result, err := mustResult(t, p1)
	require.NoError(t, err)
	assert.Equal(t, Accepted, result)
	assert.Equal(t, Pending, p2.State(), `must remain queued`)
	assert.Equal(t, 1, c.Len())

	t1 := c.Take()
	loop.run()
	value, err := mustResult(t, t1)
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	result, err = mustResult(t, p2)
	require.NoError(t, err)
	assert.Equal(t, Accepted, result)

	t2 := c.Take()
	loop.run()
	value, _ = mustResult(t, t2)
	assert.Equal(t, 2, value)
}

func TestChannel_droppingOverflow(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 1, Overflow: Dropping})

	p1 := c.Put(1)
	p2 := c.Put(2)
	t1 := c.Take()
	t2 := c.Take()
	loop.run()

	result, err := mustResult(t, p1)
	require.NoError(t, err)
	assert.Equal(t, Accepted, result)
	result, err = mustResult(t, p2)
	require.NoError(t, err)
	assert.Equal(t, Rejected, result)

	value, _ := mustResult(t, t1)
	assert.Equal(t, 1, value)
	assert.Equal(t, Pending, t2.State(), `dropped values are never delivered`)

	c.Close(false)
	loop.run()
	_, err = mustResult(t, t2)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestChannel_slidingOverflow(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 2, Overflow: Sliding})

	p1 := c.Put(1)
	p2 := c.Put(2)
	p3 := c.Put(3)
	loop.run()

	result, err := mustResult(t, p1)
	require.NoError(t, err)
	assert.Equal(t, Evicted, result)
	assert.Equal(t, Pending, p2.State())
	assert.Equal(t, Pending, p3.State())
	assert.Equal(t, 2, c.Len())

	t1 := c.Take()
	t2 := c.Take()
	loop.run()
	v1, _ := mustResult(t, t1)
	v2, _ := mustResult(t, t2)
	assert.Equal(t, []int{2, 3}, []int{v1, v2})
	for _, put := range []*Future[PutResult]{p2, p3} {
		result, _ := mustResult(t, put)
		assert.Equal(t, Accepted, result)
	}
}

func TestChannel_Close_drain(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew[int](t, loop, nil)

	c.Put(1)
	c.Put(2)
	closed := c.Close(true)
	assert.Same(t, closed, c.Close(false), `repeat calls return the same future`)
	p3 := c.Put(3)
	end := c.End()
	loop.run()

	assert.Equal(t, Closing, c.State())
	assert.Equal(t, Pending, closed.State())
	assert.Equal(t, Pending, end.State())
	result, err := mustResult(t, p3)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, Rejected, result)

	t1 := c.Take()
	loop.run()
	value, err := mustResult(t, t1)
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.Equal(t, Closing, c.State(), `the second close must not flush`)

	t2 := c.Take()
	t3 := c.Take()
	loop.run()
	value, err = mustResult(t, t2)
	require.NoError(t, err)
	assert.Equal(t, 2, value)
	_, err = mustResult(t, t3)
	assert.ErrorIs(t, err, ErrClosed)

	assert.Equal(t, Closed, c.State())
	_, err = mustResult(t, closed)
	assert.NoError(t, err)
	_, err = mustResult(t, end)
	assert.ErrorIs(t, err, ErrEnded)

	// already closed
	t4 := c.Take()
	end2 := c.End()
	loop.run()
	_, err = mustResult(t, t4)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = mustResult(t, end2)
	assert.ErrorIs(t, err, ErrEnded)
}

func TestChannel_Close_drainBlockedPuts(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 1})

	c.Put(1)
	p2 := c.Put(2)
	c.Close(true)
	loop.run()
	assert.Equal(t, Closing, c.State())
	assert.Equal(t, Pending, p2.State())

	var values []int
	for range 2 {
		take := c.Take()
		loop.run()
		value, err := mustResult(t, take)
		require.NoError(t, err)
		values = append(values, value)
	}
	assert.Equal(t, []int{1, 2}, values)
	result, _ := mustResult(t, p2)
	assert.Equal(t, Accepted, result)
	assert.Equal(t, Closed, c.State())
}

func TestChannel_Close_flush(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 1})

	p1 := c.Put(1)
	p2 := c.Put(2)
	end := c.End()
	loop.run()

	closed := c.Close(false)
	loop.run()

	assert.Equal(t, Closed, c.State())
	result, err := mustResult(t, p1)
	assert.NoError(t, err, `already resolved puts are unaffected`)
	assert.Equal(t, Accepted, result)
	result, err = mustResult(t, p2)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, Rejected, result)
	_, err = mustResult(t, closed)
	assert.NoError(t, err)
	_, err = mustResult(t, end)
	assert.ErrorIs(t, err, ErrEnded)

	take := c.Take()
	loop.run()
	_, err = mustResult(t, take)
	assert.ErrorIs(t, err, ErrClosed, `buffered values are discarded`)
}

func TestChannel_Close_flushPendingTakes(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew[string](t, loop, nil)

	t1 := c.Take()
	t2 := c.Take()
	loop.run()
	c.Close(false)
	loop.run()

	for _, take := range []*Future[string]{t1, t2} {
		_, err := mustResult(t, take)
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestChannel_Close_empty(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew[int](t, loop, nil)
	closed := c.Close(true)
	loop.run()
	assert.Equal(t, Closed, c.State())
	_, err := mustResult(t, closed)
	assert.NoError(t, err)
}

func TestChannel_Remove(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 1})

	p1 := c.Put(1)
	p2 := c.Put(2)
	loop.run()

	r2 := c.Remove(p2)
	r1 := c.Remove(p1)
	rNil := c.Remove(nil)
	loop.run()

	removed, err := mustResult(t, r2)
	require.NoError(t, err)
	assert.True(t, removed)
	result, err := mustResult(t, p2)
	assert.ErrorIs(t, err, ErrRemoved)
	assert.Equal(t, Rejected, result)

	removed, _ = mustResult(t, r1)
	assert.False(t, removed, `already accepted`)
	removed, _ = mustResult(t, rNil)
	assert.False(t, removed)

	t1 := c.Take()
	t2 := c.Take()
	loop.run()
	value, _ := mustResult(t, t1)
	assert.Equal(t, 1, value)
	assert.Equal(t, Pending, t2.State())
}

func TestChannel_Remove_buffered(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 2, Overflow: Sliding})

	p1 := c.Put(1)
	c.Put(2)
	loop.run()
	assert.Equal(t, 2, c.Len())

	r := c.Remove(p1)
	loop.run()
	removed, _ := mustResult(t, r)
	assert.True(t, removed)
	assert.Equal(t, 1, c.Len())

	take := c.Take()
	loop.run()
	value, _ := mustResult(t, take)
	assert.Equal(t, 2, value)
}

func TestChannel_Remove_closingBecomesEmpty(t *testing.T) {
	loop := new(manualLoop)
	c := mustNew(t, loop, &Config[int]{Capacity: 1, Overflow: Sliding})

	p1 := c.Put(1)
	closed := c.Close(true)
	loop.run()
	assert.Equal(t, Closing, c.State())

	c.Remove(p1)
	loop.run()
	assert.Equal(t, Closed, c.State())
	_, err := mustResult(t, closed)
	assert.NoError(t, err)
}

func TestChannel_transform(t *testing.T) {
	loop := new(manualLoop)
	var faults []error
	errOdd := errors.New(`odd`)
	c := mustNew(t, loop, &Config[int]{
		Transform: func(v int) (int, error) {
			switch {
			case v < 0:
				panic(`negative`)
			case v%2 != 0:
				return v, errOdd
			}
			return v * 10, nil
		},
		OnFault: func(err error) { faults = append(faults, err) },
	})

	t1 := c.Take()
	t2 := c.Take()
	t3 := c.Take()
	t4 := c.Take()
	p1 := c.Put(2)
	c.Put(3)
	c.Put(-2)
	c.Put(4)
	loop.run()

	value, err := mustResult(t, t1)
	require.NoError(t, err)
	assert.Equal(t, 20, value)

	_, err = mustResult(t, t2)
	assert.ErrorIs(t, err, errOdd)
	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, opTransform, fault.Op)
	assert.Equal(t, c.String(), fault.Channel)

	_, err = mustResult(t, t3)
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, `negative`, panicErr.Value)

	value, err = mustResult(t, t4)
	require.NoError(t, err)
	assert.Equal(t, 40, value, `the channel survives faults`)

	result, _ := mustResult(t, p1)
	assert.Equal(t, Accepted, result)
	require.Len(t, faults, 2)
	assert.ErrorIs(t, faults[0], errOdd)
}

func TestChannel_handlerPanic(t *testing.T) {
	loop := new(manualLoop)
	var faults []error
	c := mustNew(t, loop, &Config[int]{OnFault: func(err error) { faults = append(faults, err) }})

	c.Put(1).Then(func(PutResult, error) { panic(`boom`) })
	loop.run()

	require.Len(t, faults, 1)
	var fault *FaultError
	require.ErrorAs(t, faults[0], &fault)
	assert.Equal(t, opHandler, fault.Op)
	var panicErr *PanicError
	require.ErrorAs(t, faults[0], &panicErr)
	assert.Equal(t, `boom`, panicErr.Value)
}

func TestChannel_loopRefused(t *testing.T) {
	loop := new(manualLoop)
	var faults []error
	c := mustNew(t, loop, &Config[int]{OnFault: func(err error) { faults = append(faults, err) }})
	loop.close()

	result, err := mustResult(t, c.Put(1))
	assert.Equal(t, Rejected, result)
	assert.ErrorIs(t, err, errManualLoopClosed)

	_, err = mustResult(t, c.Take())
	assert.ErrorIs(t, err, errManualLoopClosed)

	_, err = mustResult(t, c.Close(false))
	assert.ErrorIs(t, err, errManualLoopClosed)

	assert.Len(t, faults, 3)
}
