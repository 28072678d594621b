package csp

// ChannelState is the lifecycle state of a [Channel]. Transitions are
// one-way: Open -> Closing -> Closed, or Open -> Closed.
type ChannelState int32

const (
	// Open channels accept puts and takes.
	Open ChannelState = iota
	// Closing channels reject puts, but continue to deliver the values they
	// already hold.
	Closing
	// Closed is terminal. A closed channel is always empty.
	Closed
)

func (s ChannelState) String() string {
	switch s {
	case Open:
		return "Open"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// OpState is the resolution state of a [Future].
type OpState int32

const (
	// Pending futures may be claimed or resolved.
	Pending OpState = iota
	// Resolving futures have been claimed by a matching loop, which will
	// resolve them before yielding. They can no longer be cancelled.
	Resolving
	// Resolved futures hold their final result.
	Resolved
)

func (s OpState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Resolving:
		return "Resolving"
	case Resolved:
		return "Resolved"
	default:
		return "Unknown"
	}
}

// PutResult is the outcome of [Channel.Put].
type PutResult int

const (
	// Rejected indicates the value was not accepted, and will never be
	// delivered. The error of the put's future distinguishes a full
	// [Dropping] buffer (nil) from [ErrClosed] or [ErrRemoved].
	Rejected PutResult = iota
	// Accepted indicates the value was accepted.
	Accepted
	// Evicted indicates the value was buffered, but later displaced by a
	// newer value, under the [Sliding] policy.
	Evicted
)

func (r PutResult) String() string {
	switch r {
	case Rejected:
		return "Rejected"
	case Accepted:
		return "Accepted"
	case Evicted:
		return "Evicted"
	default:
		return "Unknown"
	}
}
