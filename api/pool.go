// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Generic object-reuse contract, implemented by taskpool's scratch
// allocator for embedders that need pooled argument buffers alongside
// the task record pool.

package api

// ObjectPool provides generic pooling of Go values allocated transiently.
type ObjectPool[T any] interface {
	// Get returns an available instance from the pool.
	Get() T

	// Put returns an instance for reuse.
	Put(obj T)
}
