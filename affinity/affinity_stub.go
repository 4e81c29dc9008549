//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without an affinity API. Callers
// (workerpool) log and continue, per the pool's pin-failure contract.

package affinity

import "errors"

var errUnsupported = errors.New("affinity: not supported on this platform")

func pinPlatform(cpuID int, numaNode int) error { return errUnsupported }

func unpinPlatform() error { return errUnsupported }
