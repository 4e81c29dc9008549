package topology

import "testing"

func TestLinearTopology(t *testing.T) {
	topo, err := Linear([]uint64{100000, 70000})
	if err != nil {
		t.Fatalf("Linear: %v", err)
	}
	if topo.NumPUs() != 2 {
		t.Fatalf("NumPUs = %d, want 2", topo.NumPUs())
	}
	if topo.NumCores() != 2 {
		t.Fatalf("NumCores = %d, want 2", topo.NumCores())
	}
	if topo.MaxStrength() != 100000 {
		t.Fatalf("MaxStrength = %d, want 100000", topo.MaxStrength())
	}
	pus := topo.PUs()
	if len(pus) != 2 || pus[0].ID != 0 || pus[1].ID != 1 {
		t.Fatalf("unexpected PU order: %+v", pus)
	}
	if pus[0].Core() == nil || pus[0].Core().Socket() == nil {
		t.Fatalf("PU back-references not wired")
	}
}

func TestTopologyImmutability(t *testing.T) {
	topo, _ := Linear([]uint64{100000, 100000})
	first := topo.PUs()
	second := topo.PUs()
	if len(first) != len(second) {
		t.Fatalf("PUs() length changed between calls")
	}
	for i := range first {
		if first[i] != second[i] || first[i].Strength != second[i].Strength {
			t.Fatalf("PU %d mutated across calls", i)
		}
	}
}

func TestDuplicatePUIDRejected(t *testing.T) {
	d := Descriptor{
		NumaNodes: 1,
		Sockets: []SocketDescriptor{{
			Cores: []CoreDescriptor{
				{PUs: []PUDescriptor{{ID: 0, Strength: 1}}},
				{PUs: []PUDescriptor{{ID: 0, Strength: 1}}},
			},
		}},
	}
	if _, err := FromDescriptor(d); err == nil {
		t.Fatalf("expected error for duplicate PU id")
	}
}

func TestCacheAssociationIdempotent(t *testing.T) {
	l1 := &Cache{}
	l2 := &Cache{}
	l1.AssociateLowerCache(l2)
	l1.AssociateLowerCache(l2)
	if len(l2.HigherCaches()) != 1 {
		t.Fatalf("AssociateLowerCache not idempotent: higher caches = %d", len(l2.HigherCaches()))
	}
	if l1.LowerCache() != l2 {
		t.Fatalf("LowerCache not set")
	}

	pu := &PU{ID: 0, Strength: 1}
	l1.AssociatePU(pu)
	l1.AssociatePU(pu)
	if len(l1.AssociatedPUs()) != 1 {
		t.Fatalf("AssociatePU not idempotent: got %d", len(l1.AssociatedPUs()))
	}
}

func TestZeroPUsRejected(t *testing.T) {
	if _, err := FromDescriptor(Descriptor{}); err == nil {
		t.Fatalf("expected error for empty descriptor")
	}
}
