// Package api
// Author: momentics
//
// Executor contract for the dispatch-loop-backed worker pool.

package api

import "github.com/arcana-lab/virgil/taskpool"

// Executor abstracts a pinned, queue-backed worker pool: submit a
// function to a specific worker queue and inspect its size.
type Executor interface {
	// SubmitAndDetach pushes fn/arg onto the queue at queueIndex.
	SubmitAndDetach(fn taskpool.Func, arg any, queueIndex int) error

	// NumWorkers returns the current number of workers.
	NumWorkers() int

	// PendingTasks returns the total number of queued-but-not-yet-popped
	// tasks across all worker queues.
	PendingTasks() int
}
