// Package api
// Author: momentics
//
// Scheduler contract for weight-balanced task placement across PUs.

package api

import (
	"github.com/arcana-lab/virgil/scheduler"
	"github.com/arcana-lab/virgil/taskpool"
)

// Scheduler abstracts placement of weighted tasks onto worker queues.
type Scheduler interface {
	// Submit places fn/arg and returns the pu_id of the PU it chose.
	Submit(fn taskpool.Func, arg any, weight uint64, island int) int

	// DumpHistories returns a diagnostic snapshot of accumulated work
	// per PU, in topology order.
	DumpHistories() []scheduler.HistoryEntry
}
