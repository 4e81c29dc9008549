//go:build !linux || !cgo
// +build !linux !cgo

// File: taskpool/numa_stub.go
// Author: momentics <momentics@gmail.com>
//
// NUMA allocator stub for platforms/builds without libnuma: node
// placement is ignored and every buffer comes from the plain heap.

package taskpool

func newNUMAAllocator() numaAllocator {
	return nil
}
