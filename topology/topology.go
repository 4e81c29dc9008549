// File: topology/topology.go
// Author: momentics <momentics@gmail.com>
//
// Immutable description of a machine's compute topology: sockets, cores,
// PUs (logical processors), the cache hierarchy, NUMA nodes, and a
// per-PU relative strength. Parents own children in contiguous
// sequences; children hold non-owning back-references to their parent.
package topology

import "github.com/arcana-lab/virgil/virgilerr"

// NumaNode is a memory-affinity domain grouping cores with uniform
// access latency. It carries no behavior of its own; it exists purely
// as an identity that Core references.
type NumaNode struct {
	ID int
}

// PU is a logical processor: one OS-visible hardware thread, distinct
// from a Core, which may host several PUs under hyperthreading.
type PU struct {
	// ID is the OS-visible cpuset index used for pinning. Unique and
	// stable for the lifetime of the Topology.
	ID int

	// Strength is this PU's relative, unitless compute rate in
	// isolation. Only ratios between PUs are meaningful.
	Strength uint64

	core *Core // non-owning back-reference, set at Topology construction
}

// Core returns the Core this PU belongs to.
func (p *PU) Core() *Core { return p.core }

// Core hosts one or more PUs (hyperthreads), belongs to exactly one
// Socket, and has an associated NUMA node and cache set.
type Core struct {
	PUs []*PU

	L1, L2, L3 *Cache
	Numa       *NumaNode

	socket *Socket // non-owning back-reference
}

// Socket returns the Socket this Core belongs to.
func (c *Core) Socket() *Socket { return c.socket }

// Socket owns an ordered sequence of Cores.
type Socket struct {
	Cores []*Core
}

// Cache models one level of a cache hierarchy. It tracks the PUs that
// draw from it directly and exactly one lower cache (toward memory);
// higher caches are the maintained inverse relation.
type Cache struct {
	associatedPUs []*PU
	higherCaches  []*Cache
	lowerCache    *Cache
}

// AssociatePU records pu as backed by this cache. Idempotent.
func (c *Cache) AssociatePU(pu *PU) {
	for _, existing := range c.associatedPUs {
		if existing == pu {
			return
		}
	}
	c.associatedPUs = append(c.associatedPUs, pu)
}

// AssociateLowerCache sets other as this cache's next-lower cache and
// registers this cache in other's higher-caches list. Idempotent:
// calling it twice with the same other produces the same higher-caches
// vector as calling it once.
func (c *Cache) AssociateLowerCache(other *Cache) {
	c.lowerCache = other
	for _, existing := range other.higherCaches {
		if existing == c {
			return
		}
	}
	other.higherCaches = append(other.higherCaches, c)
}

// AssociatedPUs returns all PUs backed by this cache.
func (c *Cache) AssociatedPUs() []*PU { return c.associatedPUs }

// LowerCache returns the next-lower cache, or nil at the last level.
func (c *Cache) LowerCache() *Cache { return c.lowerCache }

// HigherCaches returns the caches that draw from this one.
func (c *Cache) HigherCaches() []*Cache { return c.higherCaches }

// Topology is the immutable, constructed-once description of a machine.
// It is safe for concurrent read access without synchronization once
// FromDescriptor/Linear returns successfully.
type Topology struct {
	Sockets []*Socket
	Numa    []*NumaNode

	numPUs      int
	numCores    int
	maxStrength uint64

	// pus caches the depth-first enumeration so repeat PUs() calls are
	// O(num_pus). Populated once, at construction.
	pus []*PU
}

// NumPUs returns the number of logical processors in the topology.
func (t *Topology) NumPUs() int { return t.numPUs }

// NumCores returns the number of cores in the topology.
func (t *Topology) NumCores() int { return t.numCores }

// MaxStrength returns the normalization constant: a value >= every PU's
// strength.
func (t *Topology) MaxStrength() uint64 { return t.maxStrength }

// PUs returns all PUs in stable depth-first topology order
// (socket, then core, then PU index within core).
func (t *Topology) PUs() []*PU { return t.pus }

// PUStrength returns the isolated strength of the PU at topology index i.
// i is the index into PUs(), not the OS-visible PU.ID.
func (t *Topology) PUStrength(i int) uint64 { return t.pus[i].Strength }

// build computes num_pus, num_cores, max_strength, and the cached PU
// enumeration, and validates the tree/DAG invariants (unique PU IDs, at
// least one PU).
func build(sockets []*Socket, numa []*NumaNode) (*Topology, error) {
	t := &Topology{Sockets: sockets, Numa: numa}

	seenIDs := make(map[int]struct{})
	for _, s := range sockets {
		for _, c := range s.Cores {
			t.numCores++
			c.socket = s
			for _, pu := range c.PUs {
				if _, dup := seenIDs[pu.ID]; dup {
					return nil, virgilerr.ErrTopologyInvalid.WithContext("pu_id", pu.ID)
				}
				seenIDs[pu.ID] = struct{}{}
				pu.core = c
				t.pus = append(t.pus, pu)
				t.numPUs++
				if pu.Strength > t.maxStrength {
					t.maxStrength = pu.Strength
				}
			}
		}
	}
	if t.numPUs == 0 {
		return nil, virgilerr.ErrTopologyInvalid.WithContext("reason", "no PUs")
	}
	return t, nil
}
