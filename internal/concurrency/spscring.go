// File: internal/concurrency/spscring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-producer/single-consumer ring buffer with minimal atomics,
// used as the extendible worker pool's depth-sample buffer: one
// producer (the submitting goroutine) records recent pending-task
// depths, one consumer (the expansion check) reads them back to decide
// whether pressure is sustained rather than a single noisy sample.

package concurrency

import "sync/atomic"

// SPSCRing is a fixed-capacity ring buffer for one producer, one consumer.
type SPSCRing[T any] struct {
	mask    uint64
	entries []T
	head    uint64
	tail    uint64
}

// NewSPSCRing creates a ring with capacity rounded up to a power of two.
func NewSPSCRing[T any](capacity int) *SPSCRing[T] {
	size := 1
	for size < capacity {
		size <<= 1
	}
	return &SPSCRing[T]{mask: uint64(size - 1), entries: make([]T, size)}
}

// Enqueue adds val, overwriting the oldest entry if the ring is full.
func (q *SPSCRing[T]) Enqueue(val T) {
	tail := atomic.LoadUint64(&q.tail)
	head := atomic.LoadUint64(&q.head)
	if tail-head >= uint64(len(q.entries)) {
		atomic.StoreUint64(&q.head, head+1)
	}
	q.entries[tail&q.mask] = val
	atomic.StoreUint64(&q.tail, tail+1)
}

// Dequeue removes and returns the oldest entry; ok is false if empty.
func (q *SPSCRing[T]) Dequeue() (item T, ok bool) {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if head >= tail {
		return item, false
	}
	item = q.entries[head&q.mask]
	atomic.StoreUint64(&q.head, head+1)
	return item, true
}

// Len returns the number of entries currently buffered.
func (q *SPSCRing[T]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	return int(tail - head)
}
