package taskpool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestLeaseReusesReleasedRecord(t *testing.T) {
	p := New()
	r1 := p.Lease(func(any) {}, nil)
	p.Release(r1)
	r2 := p.Lease(func(any) {}, nil)
	if r1 != r2 {
		t.Fatalf("Lease after Release allocated a new record instead of reusing")
	}
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
}

func TestLeaseGrowsWhenNoneFree(t *testing.T) {
	p := New()
	r1 := p.Lease(func(any) {}, nil)
	r2 := p.Lease(func(any) {}, nil)
	if r1 == r2 {
		t.Fatalf("two outstanding leases returned the same record")
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
}

func TestReleaseOfUnleasedRecordPanics(t *testing.T) {
	p := New()
	r := p.Lease(func(any) {}, nil)
	p.Release(r)

	defer func() {
		if recover() == nil {
			t.Fatalf("Release of an already-released record did not panic")
		}
	}()
	p.Release(r)
}

func TestAtMostOneLeasePerRecordUnderConcurrency(t *testing.T) {
	p := New()
	for i := 0; i < 8; i++ {
		r := p.Lease(func(any) {}, nil)
		p.Release(r)
	}

	const workers = 16
	var wg sync.WaitGroup
	var totalAllocated int64
	leased := make(chan *Record, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := p.Lease(func(any) {}, nil)
			leased <- r
		}()
	}
	wg.Wait()
	close(leased)

	seen := make(map[*Record]int)
	for r := range leased {
		seen[r]++
	}
	for r, n := range seen {
		if n != 1 {
			t.Fatalf("record %d leased %d times concurrently", r.ID, n)
		}
	}
	totalAllocated = int64(p.Len())
	if totalAllocated < workers {
		t.Fatalf("allocated %d records for %d concurrent leases", totalAllocated, workers)
	}
}

func TestRecordAllocationBoundedByPeakOutstanding(t *testing.T) {
	p := New()
	var peak int32
	var outstanding int32
	var wg sync.WaitGroup

	for round := 0; round < 50; round++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Count the task as outstanding before it leases and until
			// after it releases, so every leased record is counted.
			n := atomic.AddInt32(&outstanding, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			r := p.Lease(func(any) {}, nil)
			p.Release(r)
			atomic.AddInt32(&outstanding, -1)
		}()
	}
	wg.Wait()

	if int32(p.Len()) > peak {
		t.Fatalf("allocated %d records, peak concurrent outstanding was only %d", p.Len(), peak)
	}
}
