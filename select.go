package csp

import (
	"errors"
	"slices"
)

// Selected is the result of [Select].
type Selected[T any] struct {
	Value T
	// Channel is the channel that resolved the take, nil if there were no
	// channels left to select from.
	Channel *Channel[T]
}

type selector[T any] struct {
	fut          *Future[Selected[T]]
	channels     []*Channel[T]
	ignoreClosed bool
}

// Select races a single take across channels, resolving with the first
// result, and the channel that produced it. Nil and [Closed] channels are
// ignored, and, if there are none left, the result is [ErrEnded].
//
// If ignoreClosed is false, an [ErrClosed] result (from a channel that
// closed while the select was pending) is returned like any other result.
// Otherwise, that channel is discarded, and the select continues with the
// channels that remain.
//
// Handlers registered on the result are run on the loop of the first
// channel.
func Select[T any](ignoreClosed bool, channels ...*Channel[T]) *Future[Selected[T]] {
	channels = slices.DeleteFunc(slices.Clone(channels), func(ch *Channel[T]) bool {
		return ch == nil || ch.State() == Closed
	})
	if len(channels) == 0 {
		return resolvedFuture[Selected[T]](nil, Selected[T]{}, ErrEnded)
	}
	s := &selector[T]{
		fut:          newFuture[Selected[T]](channels[0].loop, nil),
		channels:     channels,
		ignoreClosed: ignoreClosed,
	}
	s.round()
	return s.fut
}

func (s *selector[T]) round() {
	if len(s.channels) == 0 {
		s.fut.resolve(Selected[T]{}, ErrEnded)
		return
	}
	channels := s.channels
	op := &takeOp[T]{fut: newFuture[T](nil, nil)}
	op.direct = func(value T, err error) { s.resolved(op, value, err) }
	for _, ch := range channels {
		ch.submitTake(op)
	}
}

// resolved is called by whichever channel won the round.
func (s *selector[T]) resolved(op *takeOp[T], value T, err error) {
	winner := op.source

	// prompt the losers to drop the op
	for _, ch := range s.channels {
		if ch != winner {
			_ = ch.loop.Submit(ch.purge)
		}
	}

	if s.ignoreClosed && errors.Is(err, ErrClosed) {
		// copy, as the previous round may still be reading the old slice
		remaining := make([]*Channel[T], 0, len(s.channels)-1)
		for _, ch := range s.channels {
			if ch != winner {
				remaining = append(remaining, ch)
			}
		}
		s.channels = remaining
		s.round()
		return
	}

	s.fut.resolve(Selected[T]{Value: value, Channel: winner}, err)
}
