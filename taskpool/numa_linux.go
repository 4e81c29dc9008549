//go:build linux && cgo
// +build linux,cgo

// File: taskpool/numa_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux NUMA allocator backed by libnuma via cgo.

package taskpool

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <stdlib.h>
void* virgil_numa_alloc(int size, int node) {
	if (numa_available() == -1 || node < 0) {
		return malloc(size);
	}
	return numa_alloc_onnode(size, node);
}
void virgil_numa_free(void *mem, int size) {
	numa_free(mem, size);
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

type linuxNUMAAllocator struct{}

func newNUMAAllocator() numaAllocator {
	return &linuxNUMAAllocator{}
}

func (linuxNUMAAllocator) Alloc(size int, node int) ([]byte, error) {
	ptr := C.virgil_numa_alloc(C.int(size), C.int(node))
	if ptr == nil {
		return nil, fmt.Errorf("taskpool: numa alloc of %d bytes on node %d failed", size, node)
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (linuxNUMAAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	C.virgil_numa_free(unsafe.Pointer(&buf[0]), C.int(len(buf)))
}

func (linuxNUMAAllocator) Nodes() (int, error) {
	n := C.numa_max_node()
	if n < 0 {
		return 1, fmt.Errorf("taskpool: numa not available")
	}
	return int(n) + 1, nil
}
