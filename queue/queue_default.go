//go:build !queue_sleep
// +build !queue_sleep

// File: queue/queue_default.go
// Author: momentics <momentics@gmail.com>
//
// Mutex + condition-variable discipline for the bounded-wait task queue:
// push notifies waiters, invalidate broadcasts and is idempotent, and
// values already enqueued before invalidation remain poppable via TryPop
// until drained.

package queue

import (
	"sync"

	eapache "github.com/eapache/queue"
)

// Queue is a FIFO of T with a blocking pop and explicit invalidation.
// The zero value is not usable; construct with New. Storage is an
// auto-growing ring buffer rather than a plain slice, so long-lived
// queues under bursty push/pop patterns don't repeatedly reallocate
// and re-copy their backing array.
type Queue[T any] struct {
	mu    sync.Mutex
	cond  sync.Cond
	items *eapache.Queue
	valid bool
}

// New returns an empty, valid queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{items: eapache.New(), valid: true}
	q.cond.L = &q.mu
	return q
}

// Push enqueues v. Never blocks, never fails while the queue is valid or
// not; even an invalidated queue accepts pushes (they stay poppable by
// TryPop and WaitPop until drained) so that a push racing with shutdown
// never drops its caller's task record.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items.Add(v)
	q.mu.Unlock()
	q.cond.Signal()
}

// TryPop is non-blocking: it returns false if the queue is currently
// empty, regardless of validity.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Length() == 0 {
		return v, false
	}
	return q.items.Remove().(T), true
}

// WaitPop blocks until either a value is available or the queue becomes
// invalid and empty. It returns false only in the latter case.
func (q *Queue[T]) WaitPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Length() == 0 && q.valid {
		q.cond.Wait()
	}
	if q.items.Length() == 0 {
		return v, false
	}
	return q.items.Remove().(T), true
}

// Invalidate marks the queue invalid and wakes every WaitPop waiter.
// Idempotent: a second call is a no-op.
func (q *Queue[T]) Invalidate() {
	q.mu.Lock()
	if !q.valid {
		q.mu.Unlock()
		return
	}
	q.valid = false
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Size returns the number of values currently queued.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Empty reports whether the queue currently holds no values.
func (q *Queue[T]) Empty() bool { return q.Size() == 0 }

// IsValid reports whether Invalidate has not yet been called.
func (q *Queue[T]) IsValid() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.valid
}
