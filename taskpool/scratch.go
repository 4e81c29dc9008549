// File: taskpool/scratch.go
// Author: momentics <momentics@gmail.com>
//
// A generic scratch-value pool for task arguments, separate from the
// Record free-list: callers that build a fresh argument struct per
// submission can pool it here instead of allocating one per task.

package taskpool

import "sync"

// ScratchPool wraps sync.Pool for generic, type-safe argument reuse.
type ScratchPool[T any] struct {
	pool *sync.Pool
}

// NewScratchPool creates a ScratchPool whose values are produced by
// newValue when the pool is empty.
func NewScratchPool[T any](newValue func() T) *ScratchPool[T] {
	return &ScratchPool[T]{
		pool: &sync.Pool{New: func() any { return newValue() }},
	}
}

// Get returns an available instance from the pool.
func (p *ScratchPool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns obj for reuse. Callers must not touch obj afterward until
// a subsequent Get returns it again.
func (p *ScratchPool[T]) Put(obj T) {
	p.pool.Put(obj)
}
