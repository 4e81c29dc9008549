// File: virgil.go
// Author: momentics <momentics@gmail.com>
//
// Package virgil is the public facade over the topology, queue,
// taskpool, workerpool, and scheduler packages: construct a Pool from a
// Config, Submit tasks by weight, and Close it down.
package virgil

import (
	"log"
	"sync/atomic"

	"github.com/arcana-lab/virgil/api"
	"github.com/arcana-lab/virgil/control"
	"github.com/arcana-lab/virgil/scheduler"
	"github.com/arcana-lab/virgil/taskpool"
	"github.com/arcana-lab/virgil/topology"
	"github.com/arcana-lab/virgil/workerpool"
)

var _ api.Scheduler = (*scheduler.Scheduler)(nil)
var _ api.GracefulShutdown = (*Pool)(nil)
var _ api.ObjectPool[int] = (*taskpool.ScratchPool[int])(nil)

// Topology is re-exported so embedders need only import this package for
// the common case.
type Topology = topology.Topology

// TaskFunc is the task function signature accepted by Submit.
type TaskFunc = taskpool.Func

// Pool is a ready-to-use topology-aware, weight-balanced worker pool.
type Pool struct {
	workers        *workerpool.Pool
	scheduler      *scheduler.Scheduler
	metrics        *control.MetricsRegistry
	debug          *control.DebugProbes
	config         *control.ConfigStore
	tasksSubmitted int64
}

// New builds a Pool from cfg. cfg.Topology must not be nil.
func New(cfg Config) *Pool {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = cfg.Topology.NumPUs()
	}

	workers := workerpool.New(cfg.Extendible, numWorkers, cfg.Topology)
	sched := scheduler.New(workers, cfg.Topology)
	metrics := control.NewMetricsRegistry()
	debug := control.NewDebugProbes()
	configStore := control.NewConfigStore()
	configStore.SetConfig(map[string]any{
		"num_workers": numWorkers,
		"extendible":  cfg.Extendible,
	})

	p := &Pool{workers: workers, scheduler: sched, metrics: metrics, debug: debug, config: configStore}

	configStore.OnReload(func() {
		log.Printf("virgil: config reloaded: %v", configStore.GetSnapshot())
	})
	control.RegisterReloadHook(func() {
		metrics.Set("last_reload_pending_tasks", workers.PendingTasks())
	})

	workers.SetOnTaskComplete(func() {
		metrics.Set("tasks_completed", workers.TasksCompleted())
	})

	control.RegisterPlatformProbes(debug)
	debug.RegisterProbe("histories", func() any { return sched.DumpHistories() })
	debug.RegisterProbe("num_workers", func() any { return workers.NumWorkers() })
	debug.RegisterProbe("num_idle_workers", func() any { return workers.NumIdleWorkers() })
	debug.RegisterProbe("pending_tasks", func() any { return workers.PendingTasks() })
	debug.RegisterProbe("tasks_submitted", func() any { return atomic.LoadInt64(&p.tasksSubmitted) })
	debug.RegisterProbe("tasks_completed", func() any { return workers.TasksCompleted() })
	debug.RegisterProbe("records_allocated", func() any { return workers.RecordsAllocated() })
	debug.RegisterProbe("overflow_events", func() any { return sched.OverflowEvents() })
	debug.RegisterProbe("config", func() any { return configStore.GetSnapshot() })

	return p
}

// Submit places fn/arg on the PU the scheduler judges least loaded for a
// task of the given weight, and returns the pu_id of the PU it chose.
// island groups tasks that share data locality; it does not currently
// change placement.
func (p *Pool) Submit(fn TaskFunc, arg any, weight uint64, island int) int {
	n := atomic.AddInt64(&p.tasksSubmitted, 1)
	p.metrics.Set("tasks_submitted", n)
	return p.scheduler.Submit(fn, arg, weight, island)
}

// DumpHistories returns a diagnostic snapshot of every PU's accumulated
// work, in topology order.
func (p *Pool) DumpHistories() []scheduler.HistoryEntry {
	return p.scheduler.DumpHistories()
}

// Metrics returns the pool's counter registry.
func (p *Pool) Metrics() *control.MetricsRegistry { return p.metrics }

// DebugProbes returns the pool's introspection probe registry.
func (p *Pool) DebugProbes() *control.DebugProbes { return p.debug }

// ConfigStore returns the pool's live configuration store. Embedders
// can stash additional tunables here and register OnReload listeners;
// the pool's own construction-time settings (NumWorkers, Extendible)
// are never changed by a reload.
func (p *Pool) ConfigStore() *control.ConfigStore { return p.config }

// TriggerReload invokes every hook registered with
// control.RegisterReloadHook, synchronously. Intended for tests and for
// embedders that want a deterministic point to react to a config push.
func (p *Pool) TriggerReload() {
	control.TriggerHotReloadSync()
}

// AppendShutdownCallback registers cb to run during shutdown, in FIFO
// order relative to other registered callbacks.
func (p *Pool) AppendShutdownCallback(cb func()) {
	p.workers.AppendShutdownCallback(cb)
}

// Close runs the pool's terminal shutdown sequence, blocking until every
// worker has exited and every registered shutdown callback has run.
func (p *Pool) Close() {
	p.workers.Close()
}
