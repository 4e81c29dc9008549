// File: api/shutdown.go
// Package api defines the unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components with an idempotent,
// blocking teardown sequence.
type GracefulShutdown interface {
	// Close tears the component down. Safe to call more than once.
	Close()
}
