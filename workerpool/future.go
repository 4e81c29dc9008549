// File: workerpool/future.go
// Author: momentics <momentics@gmail.com>
//
// A convenience submission variant layered over the core queue/taskpool
// primitives, outside the pool's core contract, that returns a
// future-like handle whose Wait blocks until the task finishes.
package workerpool

import (
	"errors"

	"github.com/arcana-lab/virgil/taskpool"
)

// Future is a handle to a single in-flight task submitted via
// SubmitWithCores. Its zero value is not usable.
type Future struct {
	done chan struct{}
}

// Wait blocks until the task has finished executing.
func (f *Future) Wait() { <-f.done }

// SubmitWithCores dispatches fn to whichever of the given queue indices
// currently has the fewest pending tasks, and returns a Future that
// completes when fn returns. This is an out-of-core convenience, not
// part of the pool's core contract.
func (p *Pool) SubmitWithCores(indices []int, fn taskpool.Func, arg any) (*Future, error) {
	p.mu.Lock()
	best, bestLen := -1, -1
	for _, idx := range indices {
		if idx < 0 || idx >= len(p.workers) {
			continue
		}
		l := p.workers[idx].queue.Size()
		if bestLen == -1 || l < bestLen {
			best, bestLen = idx, l
		}
	}
	p.mu.Unlock()

	if best == -1 {
		return nil, errNoValidQueueIndex
	}

	f := &Future{done: make(chan struct{})}
	wrapped := func(a any) {
		defer close(f.done)
		fn(a)
	}
	if err := p.SubmitAndDetach(wrapped, arg, best); err != nil {
		return nil, err
	}
	return f, nil
}

var errNoValidQueueIndex = errors.New("workerpool: no valid queue index in cpuset mask")
