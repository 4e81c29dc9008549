package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arcana-lab/virgil/taskpool"
	"github.com/arcana-lab/virgil/topology"
)

func mustTopology(t *testing.T, strengths ...uint64) *topology.Topology {
	t.Helper()
	topo, err := topology.Linear(strengths)
	if err != nil {
		t.Fatalf("topology.Linear: %v", err)
	}
	return topo
}

func TestSubmitAndDetachExecutesTask(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(false, 2, topo)
	defer p.Close()

	done := make(chan int, 1)
	if err := p.SubmitAndDetach(func(arg any) {
		done <- arg.(int)
	}, 42, 0); err != nil {
		t.Fatalf("SubmitAndDetach: %v", err)
	}

	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("task ran with arg %d, want 42", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestShutdownWaitsForPendingTasks(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(false, 2, topo)

	const n = 100
	var completed int64
	for i := 0; i < n; i++ {
		idx := i % 2
		if err := p.SubmitAndDetach(func(any) {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&completed, 1)
		}, nil, idx); err != nil {
			t.Fatalf("SubmitAndDetach: %v", err)
		}
	}

	p.Close()

	if completed != n {
		t.Fatalf("completed %d tasks, want %d", completed, n)
	}
}

func TestDoubleShutdownIsNoOp(t *testing.T) {
	topo := mustTopology(t, 100000)
	p := New(false, 1, topo)
	p.Close()
	p.Close() // must not panic or block
	if p.State() != StateDead {
		t.Fatalf("State() = %v, want dead", p.State())
	}
}

func TestShutdownCallbacksRunFIFO(t *testing.T) {
	topo := mustTopology(t, 100000)
	p := New(false, 1, topo)

	var order []int
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		i := i
		p.AppendShutdownCallback(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	p.Close()

	for i, v := range order {
		if v != i {
			t.Fatalf("shutdown callbacks ran out of order: %v", order)
		}
	}
}

func TestNonExtendiblePoolKeepsWorkerCount(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(false, 2, topo)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		idx := i % 2
		p.SubmitAndDetach(func(any) { wg.Done() }, nil, idx)
	}
	wg.Wait()

	if p.NumWorkers() != 2 {
		t.Fatalf("NumWorkers() = %d, want 2 for a non-extendible pool", p.NumWorkers())
	}
}

func TestExtendiblePoolGrowsUnderBurst(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(true, 2, topo)
	defer p.Close()

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		idx := i % 2
		p.SubmitAndDetach(func(any) {
			<-release
			wg.Done()
		}, nil, idx)
	}

	deadline := time.After(2 * time.Second)
	for p.NumWorkers() < 4 {
		select {
		case <-deadline:
			close(release)
			t.Fatalf("worker count never grew past %d", p.NumWorkers())
		case <-time.After(10 * time.Millisecond):
		}
	}
	close(release)
	wg.Wait()
}

func TestExtendiblePoolGrowthStopsAtMultiplierCeiling(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(true, 2, topo)
	defer p.Close()

	const wantMax = 2 * maxExpansionMultiplier
	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		idx := i % 2
		p.SubmitAndDetach(func(any) {
			<-release
			wg.Done()
		}, nil, idx)
	}

	deadline := time.After(2 * time.Second)
	stable := 0
	last := p.NumWorkers()
	for stable < 10 {
		select {
		case <-deadline:
			close(release)
			t.Fatalf("worker count never stabilized, last seen %d", last)
		case <-time.After(10 * time.Millisecond):
		}
		n := p.NumWorkers()
		if n > wantMax {
			close(release)
			t.Fatalf("NumWorkers() = %d, exceeded ceiling of %d", n, wantMax)
		}
		if n == last {
			stable++
		} else {
			stable = 0
			last = n
		}
	}
	close(release)
	wg.Wait()
}

func TestPinFailureDoesNotAbortWorker(t *testing.T) {
	// A PU id far outside any real cpuset will fail to pin on most
	// platforms; the worker must still service its queue.
	d := topology.Descriptor{
		NumaNodes: 1,
		Sockets: []topology.SocketDescriptor{{
			Cores: []topology.CoreDescriptor{
				{PUs: []topology.PUDescriptor{{ID: 999999, Strength: 1}}},
			},
		}},
	}
	topo, err := topology.FromDescriptor(d)
	if err != nil {
		t.Fatalf("FromDescriptor: %v", err)
	}
	p := New(false, 1, topo)
	defer p.Close()

	done := make(chan struct{})
	if err := p.SubmitAndDetach(func(any) { close(done) }, nil, 0); err != nil {
		t.Fatalf("SubmitAndDetach: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker with an unpinnable PU never ran its task")
	}
}

func TestPanicInTaskDoesNotAffectOtherWorkers(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(false, 2, topo)
	defer p.Close()

	p.SubmitAndDetach(func(any) { panic("boom") }, nil, 0)

	done := make(chan struct{})
	if err := p.SubmitAndDetach(func(any) { close(done) }, nil, 1); err != nil {
		t.Fatalf("SubmitAndDetach: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker 1 stalled after worker 0's task panicked")
	}
}

func TestSubmitWithCoresPicksShallowestQueue(t *testing.T) {
	topo := mustTopology(t, 100000, 100000)
	p := New(false, 2, topo)
	defer p.Close()

	block := make(chan struct{})
	p.SubmitAndDetach(func(any) { <-block }, nil, 0)
	p.SubmitAndDetach(func(any) {}, nil, 0)
	// worker 0 is stuck on the blocking task, so queue 0 holds at least
	// one queued task; queue 1 is empty.

	f, err := p.SubmitWithCores([]int{0, 1}, func(any) {}, nil)
	if err != nil {
		close(block)
		t.Fatalf("SubmitWithCores: %v", err)
	}
	done := make(chan struct{})
	go func() {
		f.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		close(block)
		t.Fatal("SubmitWithCores task did not run while queue 0 was blocked; it was not placed on the empty queue 1")
	}
	close(block)
}

var _ = taskpool.Func(nil)
