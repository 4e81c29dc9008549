// File: taskpool/numa.go
// Author: momentics <momentics@gmail.com>
//
// NUMA-local backing allocator for scratch []byte buffers that a CLI
// benchmark harness hands to its synthetic tasks as scratch working
// space. This never touches a caller's own task argument; the core
// worker pool neither copies nor interprets arg.

package taskpool

import "sync"

// numaAllocator is implemented per-platform: numa_linux.go (cgo +
// libnuma) or numa_stub.go (plain heap fallback). Free is part of the
// allocator's own contract (libnuma requires it to release
// numa_alloc_onnode memory) but NUMAScratchPool itself never calls it:
// see the comment on Put.
type numaAllocator interface {
	Alloc(size int, node int) ([]byte, error)
	Free([]byte)
	Nodes() (int, error)
}

// NUMAScratchPool hands out fixed-size []byte scratch buffers preferably
// allocated on one NUMA node, falling back to ordinary heap allocation
// where NUMA allocation is unavailable or disabled.
type NUMAScratchPool struct {
	alloc numaAllocator
	size  int
	node  int
	pool  sync.Pool
}

// NewNUMAScratchPool creates a pool of size-byte buffers preferring node.
// enable false (or a platform with no NUMA allocator) always falls back
// to plain make([]byte, size).
func NewNUMAScratchPool(node int, size int, enable bool) *NUMAScratchPool {
	na := newNUMAAllocator()
	p := &NUMAScratchPool{
		alloc: na,
		size:  size,
		node:  node,
	}
	p.pool.New = func() any {
		if na == nil || !enable {
			return make([]byte, size)
		}
		b, err := na.Alloc(size, node)
		if err != nil {
			return make([]byte, size)
		}
		return b
	}
	return p
}

// Get returns a scratch buffer, either reused or freshly allocated.
func (p *NUMAScratchPool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns buf to the pool for reuse. buf must have come from Get.
// This pools the buffer rather than freeing it: numaAllocator.Free
// releases memory back to the OS, and a pool that both frees and
// re-hands-out the same buffer would leave Get returning dangling
// memory. The backing sync.Pool may drop pooled buffers at any garbage
// collection; a dropped heap buffer is collected, while a dropped
// NUMA-allocated buffer is never freed and stays allocated until the
// process exits.
func (p *NUMAScratchPool) Put(buf []byte) {
	p.pool.Put(buf[:p.size])
}

// Nodes reports how many NUMA nodes the underlying allocator sees. It
// returns (1, nil) on builds without a NUMA allocator, and (1, err) when
// the allocator reports NUMA as unavailable.
func (p *NUMAScratchPool) Nodes() (int, error) {
	if p.alloc == nil {
		return 1, nil
	}
	return p.alloc.Nodes()
}
