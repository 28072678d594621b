// Package ringbuffer implements a growable FIFO queue backed by a circular
// slice.
//
// Not safe for concurrent use. Within go-csp, every Ring is owned by exactly
// one channel, and is only accessed on that channel's loop goroutine.
package ringbuffer

const minCap = 8

// Ring is a FIFO queue. The zero value is an empty ring, ready to use.
type Ring[T any] struct {
	data   []T
	offset int
	size   int
}

// Len returns the number of queued values.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the size of the backing slice.
func (r *Ring[T]) Cap() int { return len(r.data) }

// Push appends v to the back of the ring.
func (r *Ring[T]) Push(v T) {
	r.grow(1)
	r.data[(r.offset+r.size)%len(r.data)] = v
	r.size++
}

// Pop removes and returns the value at the front of the ring.
func (r *Ring[T]) Pop() (v T, ok bool) {
	if r.size == 0 {
		return
	}
	v = r.data[r.offset]
	var zero T
	r.data[r.offset] = zero // release reference
	r.offset = (r.offset + 1) % len(r.data)
	r.size--
	if r.size == 0 {
		r.offset = 0
	}
	r.shrink()
	return v, true
}

// Peek returns the value at the front of the ring, without removing it.
func (r *Ring[T]) Peek() (v T, ok bool) {
	if r.size == 0 {
		return
	}
	return r.data[r.offset], true
}

// At returns the i-th queued value, counting from the front. Panics if i is
// out of range.
func (r *Ring[T]) At(i int) T {
	if i < 0 || i >= r.size {
		panic(`ringbuffer: index out of range`)
	}
	return r.data[(r.offset+i)%len(r.data)]
}

// RemoveAt removes the i-th queued value, counting from the front, preserving
// the order of the remaining values. Panics if i is out of range.
func (r *Ring[T]) RemoveAt(i int) T {
	v := r.At(i)
	// shift everything after i one slot towards the front
	for j := i; j < r.size-1; j++ {
		r.data[(r.offset+j)%len(r.data)] = r.data[(r.offset+j+1)%len(r.data)]
	}
	var zero T
	r.data[(r.offset+r.size-1)%len(r.data)] = zero
	r.size--
	if r.size == 0 {
		r.offset = 0
	}
	return v
}

// Drain removes every value, returning them in FIFO order.
func (r *Ring[T]) Drain() []T {
	if r.size == 0 {
		return nil
	}
	out := make([]T, r.size)
	r.copyTo(out)
	r.data = nil
	r.offset = 0
	r.size = 0
	return out
}

func (r *Ring[T]) copyTo(dst []T) {
	end := r.offset + r.size
	if end <= len(r.data) {
		copy(dst, r.data[r.offset:end])
		return
	}
	n := copy(dst, r.data[r.offset:])
	copy(dst[n:], r.data[:r.size-n])
}

func (r *Ring[T]) setCap(n int) {
	data := make([]T, n)
	r.copyTo(data)
	r.data = data
	r.offset = 0
}

func (r *Ring[T]) grow(n int) {
	target := r.size + n
	c := len(r.data)
	if c >= target {
		return
	}
	if c < minCap {
		c = minCap
	}
	for c < target {
		c <<= 1
	}
	r.setCap(c)
}

// shrink halves the backing slice once it is at most a quarter used.
func (r *Ring[T]) shrink() {
	half := len(r.data) >> 1
	if half >= minCap && r.size <= half>>1 {
		r.setCap(half)
	}
}
