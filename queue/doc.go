// Package queue implements the bounded-wait task queue used by each
// worker: one queue per worker, single consumer, many producers, FIFO
// per queue, with a blocking WaitPop and an idempotent Invalidate that
// wakes all waiters without losing already-enqueued values.
//
// Two disciplines are provided behind the identical Queue[T] API, chosen
// at build time:
//
//   - default (no build tag): mutex plus a single sync.Cond.
//   - `queue_sleep` build tag: a spin/sleep back-off ramp (1µs, then
//     100µs after 100 spins, then 10ms after 1000 spins).
package queue
