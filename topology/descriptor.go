// File: topology/descriptor.go
// Author: momentics <momentics@gmail.com>
//
// Embedder-facing construction paths. Topology discovery from the live
// OS is out of scope here; the core only consumes a pre-built
// descriptor. Two builders are provided: FromDescriptor for a full
// hwloc-style tree, and Linear for the common single-socket,
// one-PU-per-core case used by tests and cmd/virgilbench.

package topology

// PUDescriptor describes one logical processor.
type PUDescriptor struct {
	ID       int
	Strength uint64
}

// CoreDescriptor describes one core and the PUs (hyperthreads) on it.
// NumaNode is the index into Descriptor.NumaNodes, or -1 for none.
type CoreDescriptor struct {
	PUs      []PUDescriptor
	NumaNode int
}

// SocketDescriptor describes one socket and its cores.
type SocketDescriptor struct {
	Cores []CoreDescriptor
}

// Descriptor is the embedder-supplied machine shape, analogous to a
// parsed hwloc tree. It carries no cache levels: L1/L2/L3 in the
// resulting topology.Core are always nil.
type Descriptor struct {
	Sockets   []SocketDescriptor
	NumaNodes int
}

// FromDescriptor builds an immutable Topology from d. Construction fails
// with virgilerr.ErrTopologyInvalid if any PU ID is duplicated or the
// descriptor contains zero PUs.
func FromDescriptor(d Descriptor) (*Topology, error) {
	numa := make([]*NumaNode, d.NumaNodes)
	for i := range numa {
		numa[i] = &NumaNode{ID: i}
	}

	sockets := make([]*Socket, 0, len(d.Sockets))
	for _, sd := range d.Sockets {
		socket := &Socket{}
		for _, cd := range sd.Cores {
			core := &Core{}
			if cd.NumaNode >= 0 && cd.NumaNode < len(numa) {
				core.Numa = numa[cd.NumaNode]
			}
			for _, pd := range cd.PUs {
				core.PUs = append(core.PUs, &PU{ID: pd.ID, Strength: pd.Strength})
			}
			socket.Cores = append(socket.Cores, core)
		}
		sockets = append(sockets, socket)
	}

	return build(sockets, numa)
}

// Linear builds a single-socket topology with one core per PU and no
// cache hierarchy, one PU per entry in strengths, IDs 0..len(strengths)-1.
func Linear(strengths []uint64) (*Topology, error) {
	d := Descriptor{NumaNodes: 1}
	sd := SocketDescriptor{}
	for i, s := range strengths {
		sd.Cores = append(sd.Cores, CoreDescriptor{
			PUs:      []PUDescriptor{{ID: i, Strength: s}},
			NumaNode: 0,
		})
	}
	d.Sockets = []SocketDescriptor{sd}
	return FromDescriptor(d)
}
