// Package api
// Author: momentics@gmail.com
//
// Abstract contracts implemented by the concrete virgil packages, so
// embedders can depend on an interface instead of a concrete type.

package api

// Affinity controls OS-thread-level CPU/NUMA pinning.
type Affinity interface {
	// Pin locks the current goroutine's OS thread to cpuID, with
	// numaID as a locality hint.
	Pin(cpuID int, numaID int) error
	// Unpin releases any pinning set by Pin.
	Unpin() error
}
