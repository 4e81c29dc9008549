//go:build windows
// +build windows

// File: affinity/affinity_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows thread affinity via SetThreadAffinityMask. NUMA-node binding is
// not attempted here; the CPU mask alone is sufficient to keep a worker
// on its assigned PU.

package affinity

import (
	"syscall"
)

var (
	kernel32                  = syscall.NewLazyDLL("kernel32.dll")
	procSetThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	procGetCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

func pinPlatform(cpuID int, numaNode int) error {
	hThread, _, _ := procGetCurrentThread.Call()
	mask := uintptr(1) << uint(cpuID)
	ret, _, err := procSetThreadAffinityMask.Call(hThread, mask)
	if ret == 0 {
		return err
	}
	return nil
}

func unpinPlatform() error {
	hThread, _, _ := procGetCurrentThread.Call()
	ret, _, err := procSetThreadAffinityMask.Call(hThread, ^uintptr(0))
	if ret == 0 {
		return err
	}
	return nil
}
