// File: workerpool/pool.go
// Author: momentics <momentics@gmail.com>
//
// Worker pool: one queue per PU-pinned worker, a dispatch loop that
// pops-executes-releases without preemption, and a terminal shutdown
// sequence. Each worker is a goroutine pinned with LockOSThread plus
// affinity.Pin, standing in for a dedicated OS thread bound to a single
// processing unit.
package workerpool

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/arcana-lab/virgil/affinity"
	"github.com/arcana-lab/virgil/internal/concurrency"
	"github.com/arcana-lab/virgil/queue"
	"github.com/arcana-lab/virgil/taskpool"
	"github.com/arcana-lab/virgil/topology"
	"github.com/arcana-lab/virgil/virgilerr"
)

// workersPerExpansion bounds how many helper workers an extendible pool
// spawns per expansion trigger.
const workersPerExpansion = 2

// depthSampleWindow is how many recent pending-minus-idle samples the
// expansion check averages over, so a single noisy submission burst
// can't by itself trigger growth.
const depthSampleWindow = 8

// maxExpansionMultiplier bounds how far an extendible pool may grow
// past its starting worker count: sustained pressure can keep adding
// workersPerExpansion at a time, but never past
// maxExpansionMultiplier*initialWorkers total, so a runaway producer
// can't grow the pool without limit.
const maxExpansionMultiplier = 4

type worker struct {
	queue     *queue.Queue[*taskpool.Record]
	pinnedPU  int // topology-order index; -1 for extended, unpinned workers
	available int32
	exited    chan struct{}
}

// Pool owns worker goroutines, their queues, and the shared task record
// pool. It is the sole owner of all three.
type Pool struct {
	topo           *topology.Topology
	records        *taskpool.Pool
	state          stateBox
	mu             sync.Mutex // protects workers slice growth (extendible pools)
	workers        []*worker
	extendible     bool
	initialWorkers int
	maxWorkers     int

	shutdownCallbacks []func()
	shutdownOnce      sync.Once

	depthSamples   *concurrency.SPSCRing[int]
	tasksCompleted int64
	onTaskComplete func() // optional, set via SetOnTaskComplete
}

// New creates a Pool with one worker per PU in topo's topology order,
// each pinned to its PU (pin failures are logged and the worker keeps
// running unpinned). If numWorkers is less than topo.NumPUs(), only the
// first numWorkers PUs (in topology order) get a worker; if numWorkers
// exceeds it, the extra workers are unpinned.
func New(extendible bool, numWorkers int, topo *topology.Topology) *Pool {
	if numWorkers <= 0 {
		numWorkers = topo.NumPUs()
	}
	p := &Pool{
		topo:           topo,
		records:        taskpool.New(),
		extendible:     extendible,
		depthSamples:   concurrency.NewSPSCRing[int](depthSampleWindow),
		initialWorkers: numWorkers,
		maxWorkers:     numWorkers * maxExpansionMultiplier,
	}
	p.spawn(numWorkers)
	return p
}

// spawn starts n additional workers, pinning the first
// topo.NumPUs()-len(p.workers) of them to successive PUs in topology
// order and leaving the rest unpinned.
func (p *Pool) spawn(n int) {
	pus := p.topo.PUs()
	p.mu.Lock()
	start := len(p.workers)
	for i := 0; i < n; i++ {
		idx := start + i
		pinnedPU := -1
		if idx < len(pus) {
			pinnedPU = idx
		}
		w := &worker{
			queue:     queue.New[*taskpool.Record](),
			pinnedPU:  pinnedPU,
			available: 1,
			exited:    make(chan struct{}),
		}
		p.workers = append(p.workers, w)
		go p.runWorker(w)
	}
	p.mu.Unlock()
}

// runWorker is the per-worker dispatch loop:
//  1. set availability true
//  2. wait_pop
//  3. if false, exit
//  4. set availability false
//  5. execute
//  6. release the record
//  7. goto 1
func (p *Pool) runWorker(w *worker) {
	defer close(w.exited)

	if w.pinnedPU >= 0 {
		runtime.LockOSThread()
		pus := p.topo.PUs()
		pu := pus[w.pinnedPU]
		numaID := -1
		if pu.Core() != nil && pu.Core().Numa != nil {
			numaID = pu.Core().Numa.ID
		}
		if err := affinity.Pin(pu.ID, numaID); err != nil {
			log.Printf("workerpool: %v: pu %d: %v", virgilerr.ErrPinFailure, pu.ID, err)
		}
	}

	for {
		setAvailable(w, true)
		rec, ok := w.queue.WaitPop()
		if !ok {
			return
		}
		setAvailable(w, false)
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("workerpool: task panicked: %v", r)
				}
			}()
			rec.Fn(rec.Arg)
		}()
		p.records.Release(rec)
		atomic.AddInt64(&p.tasksCompleted, 1)
		if cb := p.onTaskComplete; cb != nil {
			cb()
		}
	}
}

func setAvailable(w *worker, v bool) {
	n := int32(0)
	if v {
		n = 1
	}
	atomic.StoreInt32(&w.available, n)
}

// TasksCompleted returns the total number of tasks this pool has
// finished executing (including tasks that panicked).
func (p *Pool) TasksCompleted() int64 {
	return atomic.LoadInt64(&p.tasksCompleted)
}

// RecordsAllocated returns the total number of task records ever
// allocated by this pool's free-list, i.e. its working-set size.
func (p *Pool) RecordsAllocated() int {
	return p.records.Len()
}

// SetOnTaskComplete registers cb to run after every task finishes
// executing (after recover and after its record is released). Intended
// for embedders wiring completion counters into their own metrics;
// only one callback may be registered.
func (p *Pool) SetOnTaskComplete(cb func()) {
	p.onTaskComplete = cb
}

// NumWorkers returns the current number of workers, pinned or not.
func (p *Pool) NumWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// NumIdleWorkers returns the number of workers currently blocked in
// WaitPop with no task in flight.
func (p *Pool) NumIdleWorkers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, w := range p.workers {
		if atomic.LoadInt32(&w.available) == 1 {
			n++
		}
	}
	return n
}

// PendingTasks returns the total number of queued-but-not-yet-popped
// tasks across all worker queues.
func (p *Pool) PendingTasks() int {
	p.mu.Lock()
	workers := append([]*worker(nil), p.workers...)
	p.mu.Unlock()
	total := 0
	for _, w := range workers {
		total += w.queue.Size()
	}
	return total
}

// SubmitAndDetach leases a task record, binds fn/arg to it, and pushes
// it onto the queue at queueIndex. No completion notification is
// produced: the task itself signals completion. This is a direct bypass
// of the scheduler, for tests and low-level callers.
func (p *Pool) SubmitAndDetach(fn taskpool.Func, arg any, queueIndex int) error {
	p.mu.Lock()
	if queueIndex < 0 || queueIndex >= len(p.workers) {
		p.mu.Unlock()
		return fmt.Errorf("workerpool: queue index %d out of range [0,%d)", queueIndex, len(p.workers))
	}
	w := p.workers[queueIndex]
	p.mu.Unlock()

	rec := p.records.Lease(fn, arg)
	w.queue.Push(rec)

	p.maybeExpand()
	return nil
}

// maybeExpand records the current pending-minus-idle depth and spawns
// workersPerExpansion more workers once the smoothed recent
// depth is consistently positive, so a single transient burst doesn't
// by itself trigger growth. Growth stops once the pool reaches
// maxExpansionMultiplier times its starting worker count. New workers
// are pinned only while the topology still has PUs without a worker
// (see spawn); past that they run unpinned. A no-op on non-extendible
// pools.
func (p *Pool) maybeExpand() {
	if !p.extendible {
		return
	}

	depth := p.PendingTasks() - p.NumIdleWorkers()
	p.depthSamples.Enqueue(depth)

	if p.smoothedDepth() <= 0 {
		return
	}
	if p.NumWorkers() >= p.maxWorkers {
		return
	}
	n := workersPerExpansion
	if p.NumWorkers()+n > p.maxWorkers {
		n = p.maxWorkers - p.NumWorkers()
	}
	p.spawn(n)
}

// smoothedDepth averages the buffered depth samples once a full window
// of depthSampleWindow has accumulated, draining them in the process.
// Until the window is full it reports zero and leaves the samples
// buffered.
func (p *Pool) smoothedDepth() int {
	if p.depthSamples.Len() < depthSampleWindow {
		return 0
	}
	sum, n := 0, 0
	for {
		d, ok := p.depthSamples.Dequeue()
		if !ok {
			break
		}
		sum += d
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// AppendShutdownCallback registers cb to run during JOINING → DEAD, in
// FIFO order relative to other registered callbacks.
func (p *Pool) AppendShutdownCallback(cb func()) {
	p.mu.Lock()
	p.shutdownCallbacks = append(p.shutdownCallbacks, cb)
	p.mu.Unlock()
}

// Close runs the terminal shutdown sequence: RUNNING → DRAINING →
// JOINING → DEAD. It is idempotent and blocks until every worker has
// exited its dispatch loop and every registered shutdown callback has
// run.
func (p *Pool) Close() {
	p.shutdownOnce.Do(func() {
		p.state.store(StateDraining)

		p.mu.Lock()
		workers := append([]*worker(nil), p.workers...)
		p.mu.Unlock()
		for _, w := range workers {
			w.queue.Invalidate()
		}

		var g errgroup.Group
		for _, w := range workers {
			w := w
			g.Go(func() error {
				<-w.exited
				return nil
			})
		}
		g.Wait()
		p.state.store(StateJoining)

		p.mu.Lock()
		callbacks := p.shutdownCallbacks
		p.shutdownCallbacks = nil
		p.mu.Unlock()
		for _, cb := range callbacks {
			cb()
		}

		p.state.store(StateDead)
	})
}

// State returns the pool's current lifecycle stage.
func (p *Pool) State() State { return p.state.load() }
