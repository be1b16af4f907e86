// Package ring implements a small FIFO queue over a power-of-two
// ring buffer, sized to what the e-graph rebuild worklist needs:
// push at the end, pop from the start, query the length. Nothing in
// this module ever needs to push/peek/discard from both ends or copy
// out a window, so the API is narrower than a general-purpose deque.
package ring

import "math/bits"

// Buffer is a FIFO queue backed by a slice whose capacity is always a
// power of two (or zero). The zero value is ready to use.
type Buffer[T any] struct {
	// buf holds the backing slice. Its length is used to record the
	// start offset: when the data is contiguous it lives in
	// buf[len(buf):len(buf)+n]; when it wraps around the end of the
	// slice it lives in buf[len(buf):cap(buf)], buf[:wrapped part].
	buf []T
	n   int
}

// NewBuffer returns a queue with at least the given initial capacity.
func NewBuffer[T any](minCap int) *Buffer[T] {
	var b Buffer[T]
	b.ensureCap(minCap)
	return &b
}

// Len returns the number of queued elements.
func (b *Buffer[T]) Len() int {
	return b.n
}

// PushEnd adds x to the end of the queue.
func (b *Buffer[T]) PushEnd(x T) {
	b.ensureCap(b.n + 1)
	buf, _, i1 := b.window()
	buf[i1] = x
	b.n++
}

// PopStart removes and returns the element at the front of the queue.
// It panics if the queue is empty.
func (b *Buffer[T]) PopStart() T {
	if b.n <= 0 {
		panic("ring.Buffer.PopStart called on empty buffer")
	}
	buf, i0, _ := b.window()
	x := buf[i0]
	buf[i0] = *new(T)
	i0 = b.mod(i0 + 1)
	b.buf = b.buf[:i0]
	b.n--
	return x
}

// ensureCap grows the backing slice, if needed, to hold at least n
// elements, preserving the queue's current contents and order.
func (b *Buffer[T]) ensureCap(n int) {
	if n <= cap(b.buf) {
		return
	}
	newCap := 1 << bits.Len(uint(n-1))
	buf, i0, i1 := b.window()
	grown := make([]T, newCap)
	if i0 < i1 {
		copy(grown, buf[i0:i1])
	} else {
		k := copy(grown, buf[i0:])
		copy(grown[k:], buf[:i1])
	}
	b.buf = grown[:0]
}

// window returns the full backing slice and the indices of the start
// and just-past-the-end elements. When i1 < i0 the queue wraps: its
// elements are buf[i0:] followed by buf[:i1].
func (b *Buffer[T]) window() ([]T, int, int) {
	return b.buf[:cap(b.buf)], len(b.buf), b.mod(len(b.buf) + b.n)
}

// mod returns x modulo the buffer's capacity. It relies on the capacity
// always being a power of two; when the buffer is still empty (capacity
// zero) x is always zero too, so the x & -1 identity falls out of the
// same formula without a special case.
func (b *Buffer[T]) mod(x int) int {
	return x & (cap(b.buf) - 1)
}
