// File: cmd/virgilbench/main.go
// Author: momentics <momentics@gmail.com>
//
// virgilbench is a reference test harness for the virgil worker pool:
// the plain mode submits TASKS independent iterative-sqrt jobs across
// THREADS workers; the helix subcommand runs a HELIX-style pipeline of
// sequential segments handed off between workers in a ring, optionally
// with helper goroutines that spin alongside the ring until it finishes.
package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arcana-lab/virgil"
	"github.com/arcana-lab/virgil/taskpool"
	"github.com/arcana-lab/virgil/topology"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	dumpState := false
	if len(args) > 0 && args[0] == "-dump-state" {
		dumpState = true
		args = args[1:]
	}
	if len(args) == 0 {
		usage()
		return 1
	}
	if args[0] == "helix" {
		return runHelix(args[1:], dumpState)
	}
	return runPlain(args, dumpState)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: virgilbench [-dump-state] TASKS MAX_ITERS THREADS")
	fmt.Fprintln(os.Stderr, "       virgilbench [-dump-state] helix ITERS THREADS NUM_SS BASELINE HELPER_THREADS PAUSES SCC_ITERS")
}

// printDumpState prints the pool's debug probe snapshot, one key per
// line, sorted for stable output.
func printDumpState(pool *virgil.Pool) {
	state := pool.DebugProbes().DumpState()
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("virgilbench: %s = %v\n", k, state[k])
	}
}

func atoiOrFail(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sqrtWork repeatedly takes the square root of v, iters times, matching
// the original harness's CPU-bound synthetic workload.
func sqrtWork(v float64, iters int) float64 {
	for i := 0; i < iters; i++ {
		v = math.Sqrt(v)
	}
	return v
}

// runPlain submits tasks independent iterative-sqrt jobs across a pool
// of threads workers and waits for all of them to finish.
func runPlain(args []string, dumpState bool) int {
	if len(args) < 3 {
		usage()
		return 1
	}
	tasks, ok1 := atoiOrFail(args[0])
	iters, ok2 := atoiOrFail(args[1])
	threads, ok3 := atoiOrFail(args[2])
	if !ok1 || !ok2 || !ok3 || tasks < 0 || iters < 0 || threads <= 0 {
		usage()
		return 1
	}

	strengths := make([]uint64, threads)
	for i := range strengths {
		strengths[i] = 1
	}
	topo, err := topology.Linear(strengths)
	if err != nil {
		fmt.Fprintln(os.Stderr, "virgilbench:", err)
		return 1
	}

	pool := virgil.New(virgil.Config{Topology: topo, NumWorkers: threads})
	defer pool.Close()

	// Scratch argument buffers: a NUMA-local byte scratchpad per task
	// (node 0, falls back to plain heap where NUMA allocation isn't
	// available) plus the result-holding float scratch pool.
	scratchBytes := taskpool.NewNUMAScratchPool(0, 64, true)
	scratch := taskpool.NewScratchPool(func() *float64 { v := 0.0; return &v })

	var wg sync.WaitGroup
	wg.Add(tasks)
	for i := 0; i < tasks; i++ {
		pool.Submit(func(arg any) {
			defer wg.Done()
			buf := scratchBytes.Get()
			defer scratchBytes.Put(buf)
			v := scratch.Get()
			defer scratch.Put(v)
			*v = sqrtWork(float64(iters), iters)
		}, nil, uint64(iters), 0)
	}
	wg.Wait()

	fmt.Printf("virgilbench: %d tasks x %d iters across %d workers done\n", tasks, iters, threads)
	if dumpState {
		printDumpState(pool)
	}
	return 0
}

// runHelix runs a HELIX-style pipeline: threads workers each own a ring
// of numSS sequential-segment batons. A worker does parallel work for
// segment ssID, then hands the baton for ssID to its successor in the
// ring before moving to the next segment. Optional helper goroutines
// (one per worker) loop PAUSES one-nanosecond sleeps at a time until the
// ring finishes; they do not touch the batons.
func runHelix(args []string, dumpState bool) int {
	if len(args) < 7 {
		usage()
		return 1
	}
	iters, ok1 := atoiOrFail(args[0])
	threads, ok2 := atoiOrFail(args[1])
	numSS, ok3 := atoiOrFail(args[2])
	baseline, ok4 := atoiOrFail(args[3])
	helperThreads, ok5 := atoiOrFail(args[4])
	pauses, ok6 := atoiOrFail(args[5])
	sccIters, ok7 := atoiOrFail(args[6])
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 || threads <= 0 || numSS <= 0 {
		usage()
		return 1
	}

	if baseline != 0 {
		v0, v1 := 3.5432, 3.5432
		for i := 0; i < iters; i++ {
			v0 = sqrtWork(v0, sccIters)
			v1 = sqrtWork(v1, sccIters)
		}
		fmt.Printf("virgilbench helix: baseline result %v\n", v0+v1)
		return 0
	}

	strengths := make([]uint64, threads)
	for i := range strengths {
		strengths[i] = 1
	}
	topo, err := topology.Linear(strengths)
	if err != nil {
		fmt.Fprintln(os.Stderr, "virgilbench:", err)
		return 1
	}
	pool := virgil.New(virgil.Config{Topology: topo, NumWorkers: threads, Extendible: helperThreads > 0})
	defer pool.Close()

	// batons[thread][ss] is ready when thread may perform segment ss of
	// the current outer iteration. Thread 0's segments start ready;
	// every other thread's segments start blocked until their
	// predecessor hands off.
	batons := make([][]chan struct{}, threads)
	for t := range batons {
		batons[t] = make([]chan struct{}, numSS)
		for s := range batons[t] {
			batons[t][s] = make(chan struct{}, 1)
		}
		if t == 0 {
			for s := range batons[t] {
				batons[t][s] <- struct{}{}
			}
		}
	}

	loopOver := make(chan struct{})
	values := make([]float64, numSS)
	for i := range values {
		values[i] = 3.4514 * float64(i%10)
	}

	var workers errgroup.Group
	var helpers errgroup.Group
	for t := 0; t < threads; t++ {
		t := t
		succ := (t + 1) % threads
		workers.Go(func() error {
			for i := t; i < iters; i += threads {
				for s := 0; s < numSS; s++ {
					<-batons[t][s]
					values[s] = sqrtWork(values[s], sccIters)
					batons[succ][s] <- struct{}{}
				}
			}
			return nil
		})

		if helperThreads > 0 {
			helpers.Go(func() error {
				for {
					select {
					case <-loopOver:
						return nil
					default:
						for p := 0; p < pauses; p++ {
							time.Sleep(time.Nanosecond)
						}
					}
				}
			})
		}
	}

	workers.Wait()
	close(loopOver)
	helpers.Wait()

	fmt.Printf("virgilbench helix: %d iters x %d segments across %d workers done\n", iters, numSS, threads)
	if dumpState {
		printDumpState(pool)
	}
	return 0
}
