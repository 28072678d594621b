// Package csp implements CSP-style channels, for coordinating producers and
// consumers that share a single-threaded, cooperative event loop.
//
// A [Channel] is a FIFO queue, with an optional capacity and an [Overflow]
// policy, that pairs puts with takes. Every operation returns a [Future],
// which completes once the matching loop has paired it, or once the channel
// has been closed. All channel state is owned by the channel's [Loop] (e.g. a
// *eventloop.Loop from github.com/joeycumines/go-eventloop), meaning that the
// methods of [Channel] may be called from any goroutine, but the work always
// happens on the loop goroutine.
//
// # Lifecycle
//
// Channels start [Open]. [Channel.Close] either flushes every pending
// operation with [ErrClosed] (immediately [Closed]), or stops accepting puts
// and keeps delivering the remaining values to takers ([Closing]), until the
// channel is empty. [Channel.End] completes with [ErrEnded] once the channel
// is closed and empty.
//
// # Composition
//
// [Select] races a single take across many channels, resolving with the
// first value (and the channel it came from). [Channel.Pipe] forwards every
// value to one or more downstream channels, and [Merge] combines channels into
// one.
//
// # Waiting
//
// On the loop goroutine, use [Future.Then]. Off the loop, [Future.Wait] may be
// used. Never call Wait on the loop goroutine, as it blocks the loop that
// would complete the future.
package csp
