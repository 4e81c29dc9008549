// File: taskpool/taskpool.go
// Author: momentics <momentics@gmail.com>
//
// Task object pool: reuses fixed task records across submissions so
// steady-state dispatch allocates nothing. Each record carries a
// function pointer, an argument, an id, and an atomic available flag;
// leasing does a spinlock-guarded, grow-only linear scan for the first
// free record.

package taskpool

import (
	"sync/atomic"

	"github.com/arcana-lab/virgil/virgilerr"
)

// Func is the task function signature. arg is passed unchanged; its
// lifetime must outlive the task's execution, and is entirely the
// caller's responsibility — the core never copies or interprets it.
type Func func(arg any)

// Record is a fixed, reusable task slot. Available is the only mutable
// field after lease: flipped false on Lease, true on Release. ID is
// assigned at allocation and stable for the pool's lifetime.
type Record struct {
	ID  uint64
	Fn  Func
	Arg any

	available int32 // atomic bool: 1 = free, 0 = leased
}

// spin is a tiny test-and-CAS spinlock. Critical sections guarded by it
// are O(1) or an O(n) linear scan, never blocking work.
type spin struct{ flag int32 }

func (s *spin) lock() {
	for !atomic.CompareAndSwapInt32(&s.flag, 0, 1) {
		// busy-spin: critical sections are short linear scans, not
		// blocking work, so there is nothing useful to yield to.
	}
}

func (s *spin) unlock() { atomic.StoreInt32(&s.flag, 0) }

// Pool is a grow-only free-list of Records, bounded above by the peak
// number of concurrently outstanding tasks.
type Pool struct {
	lock    spin
	records []*Record
	nextID  uint64
}

// New returns an empty pool. Records are allocated lazily by Lease.
func New() *Pool {
	return &Pool{}
}

// Lease returns an available record, allocating a new one only if none
// are free. The returned record has Fn and Arg set to fn and arg.
func (p *Pool) Lease(fn Func, arg any) *Record {
	p.lock.lock()
	defer p.lock.unlock()

	for _, r := range p.records {
		if atomic.CompareAndSwapInt32(&r.available, 1, 0) {
			r.Fn, r.Arg = fn, arg
			return r
		}
	}

	r := &Record{ID: p.nextID, Fn: fn, Arg: arg, available: 0}
	p.nextID++
	p.records = append(p.records, r)
	return r
}

// Release returns rec to the pool. Releasing a record that is not
// currently leased is a usage bug and panics: it indicates corruption,
// not a recoverable condition.
func (p *Pool) Release(rec *Record) {
	if !atomic.CompareAndSwapInt32(&rec.available, 0, 1) {
		panic(virgilerr.New(virgilerr.CodeReleaseOfUnleasedRecord, "release of a record that was not leased").
			WithContext("record_id", rec.ID))
	}
}

// Len returns the total number of records ever allocated (the pool's
// current working-set size). Tests use it to check that total records
// allocated never exceeds the peak number of concurrently outstanding
// tasks.
func (p *Pool) Len() int {
	p.lock.lock()
	defer p.lock.unlock()
	return len(p.records)
}
