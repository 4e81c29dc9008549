// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU/NUMA affinity. Platform-specific
// implementations live in separate files (affinity_linux.go,
// affinity_windows.go, affinity_stub.go) guarded by build tags.
//
// Pin failures are never fatal: per the worker pool's pinning contract,
// a worker that cannot be pinned keeps running unpinned.

package affinity

import (
	"runtime"
)

// Pin locks the calling goroutine to its OS thread and attempts to bind
// that thread to cpuID. numaNode, if >= 0, is a best-effort NUMA hint;
// platforms without NUMA support ignore it.
func Pin(cpuID int, numaNode int) error {
	runtime.LockOSThread()
	return pinPlatform(cpuID, numaNode)
}

// Unpin removes any affinity constraint set by Pin. It does not call
// UnlockOSThread: a pinned worker goroutine holds its OS thread for its
// entire lifetime regardless of affinity state.
func Unpin() error {
	return unpinPlatform()
}

// NumCPUs returns the number of logical CPUs visible to the process.
func NumCPUs() int {
	return runtime.NumCPU()
}

// Handle adapts the package-level Pin/Unpin functions to api.Affinity,
// for callers that want to depend on an interface.
type Handle struct{}

func (Handle) Pin(cpuID int, numaID int) error { return Pin(cpuID, numaID) }
func (Handle) Unpin() error                    { return Unpin() }
