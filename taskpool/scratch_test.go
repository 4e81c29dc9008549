package taskpool

import "testing"

type scratchArg struct {
	buf [64]byte
}

func TestScratchPoolGetCallsCreatorWhenEmpty(t *testing.T) {
	created := 0
	p := NewScratchPool(func() *scratchArg {
		created++
		return &scratchArg{}
	})

	a := p.Get()
	p.Put(a)
	b := p.Get()

	if created == 0 {
		t.Fatalf("creator was never called")
	}
	_ = a
	_ = b
}

func TestScratchPoolGetNeverReturnsNilValue(t *testing.T) {
	p := NewScratchPool(func() *scratchArg { return &scratchArg{} })
	v := p.Get()
	if v == nil {
		t.Fatalf("Get returned a nil value")
	}
}
