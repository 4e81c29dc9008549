// File: config.go
// Author: momentics <momentics@gmail.com>
//
// Construction-time configuration for a Pool.
package virgil

// Config wires together the topology, worker pool, and scheduler into a
// single Pool. All fields are construction-time only: there is no
// supported way to change worker count, extendibility, or topology
// after New returns.
type Config struct {
	// Topology describes the machine the pool runs on. Required.
	Topology *Topology

	// NumWorkers is the number of workers to spawn initially. A value
	// <= 0 defaults to Topology.NumPUs().
	NumWorkers int

	// Extendible allows the pool to spawn extra workers under sustained
	// queue pressure. Extra workers are pinned only while the topology
	// has PUs without a worker; the rest run unpinned.
	Extendible bool
}
