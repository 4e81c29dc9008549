// File: scheduler/scheduler.go
// Author: momentics <momentics@gmail.com>
//
// Weight-balanced greedy scheduler: tracks accumulated work per PU and
// places each new task on the PU with the lowest projected total after
// the task lands, normalized by that PU's relative strength.
package scheduler

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/arcana-lab/virgil/taskpool"
	"github.com/arcana-lab/virgil/topology"
	"github.com/arcana-lab/virgil/virgilerr"
	"github.com/arcana-lab/virgil/workerpool"
)

// granularity scales an incoming task weight before it is combined with
// accumulated history, giving the balance a finer resolution than raw
// caller-supplied weights would allow.
const granularity = 1000

// overflowThreshold bounds how high any single PU's accumulated work may
// climb before every PU's history is halved. Set well below the
// uint64 range so the halving never races a legitimate large weight.
const overflowThreshold = uint64(1) << 62

// HistoryEntry is a diagnostic snapshot of one PU's scheduling state.
type HistoryEntry struct {
	PUIndex         int
	PUID            int
	AccumulatedWork uint64
}

// Scheduler assigns each submitted task to a worker queue by greedy
// argmin over strength-normalized accumulated work. It owns no workers
// or queues itself; it only decides which queue index a task lands on
// and forwards the submission to pool.
type Scheduler struct {
	pool *workerpool.Pool
	topo *topology.Topology

	mu      sync.Mutex
	history []uint64 // accumulated_work per PU, indexed as topo.PUs()

	overflowEvents int64
}

// New builds a Scheduler over pool and topo. topo must be the same
// topology pool was constructed with: PU counts and indices must match.
func New(pool *workerpool.Pool, topo *topology.Topology) *Scheduler {
	return &Scheduler{
		pool:    pool,
		topo:    topo,
		history: make([]uint64, topo.NumPUs()),
	}
}

// Submit places fn/arg on the PU that minimizes accumulated_work plus
// weight scaled by max_strength/strength, and returns the pu_id of the
// PU it chose (not its topology index). Ties resolve to the lowest
// topology index. A weight of zero always routes to whichever PU
// currently has the least accumulated work, moving it there without
// materially increasing its tally. island is reserved for
// locality-aware placement and is not yet consulted by the argmin.
func (s *Scheduler) Submit(fn taskpool.Func, arg any, weight uint64, island int) int {
	scaled := weight * granularity
	maxStrength := s.topo.MaxStrength()

	s.mu.Lock()
	best := 0
	bestCost := ^uint64(0)
	bestAdd := uint64(0)
	for i := range s.history {
		add := scaled * maxStrength / max1(s.topo.PUStrength(i))
		cost := s.history[i] + add
		if cost < bestCost {
			bestCost, best, bestAdd = cost, i, add
		}
	}

	s.history[best] += bestAdd
	if s.history[best] > overflowThreshold {
		s.halveHistories()
	}
	s.mu.Unlock()

	_ = island // reserved for future locality-island routing
	if err := s.pool.SubmitAndDetach(fn, arg, best); err != nil {
		log.Printf("scheduler: submit to pu index %d failed: %v", best, err)
	}
	return s.topo.PUs()[best].ID
}

// halveHistories divides every PU's accumulated work by two. Called with
// mu held. This is the overflow-avoidance policy: precision is lost, not
// correctness, since all PUs are scaled uniformly and relative order is
// preserved.
func (s *Scheduler) halveHistories() {
	log.Printf("scheduler: %v", virgilerr.ErrAccumulatorOverflow)
	atomic.AddInt64(&s.overflowEvents, 1)
	for i := range s.history {
		s.history[i] /= 2
	}
}

// OverflowEvents returns the number of times halveHistories has run.
func (s *Scheduler) OverflowEvents() int64 {
	return atomic.LoadInt64(&s.overflowEvents)
}

// DumpHistories returns a snapshot of every PU's accumulated work, in
// topology order, for diagnostics.
func (s *Scheduler) DumpHistories() []HistoryEntry {
	pus := s.topo.PUs()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	for i, w := range s.history {
		out[i] = HistoryEntry{PUIndex: i, PUID: pus[i].ID, AccumulatedWork: w}
	}
	return out
}

func max1(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return v
}
