//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux affinity via sched_setaffinity(2), reached through
// golang.org/x/sys/unix rather than cgo: no C toolchain is required to
// pin a worker.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// linuxCPUSetSize mirrors the glibc CPU_SETSIZE (1024 bits), which
// golang.org/x/sys/unix sizes its CPUSet type to but does not export.
const linuxCPUSetSize = 1024

func pinPlatform(cpuID int, numaNode int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity failed: %w", err)
	}
	// NUMA node binding is a best-effort hint on Linux without libnuma
	// linked in; the CPU affinity above already constrains execution to
	// numaNode's PUs when the topology descriptor was built correctly.
	_ = numaNode
	return nil
}

func unpinPlatform() error {
	var set unix.CPUSet
	set.Zero()
	for cpu := 0; cpu < linuxCPUSetSize; cpu++ {
		set.Set(cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity reset failed: %w", err)
	}
	return nil
}
