package graph

import (
	"errors"
	"testing"
)

// Several of these tests build edge shapes directly on the internal
// state where the public constructors cannot (duplicate edges, genuine
// cycles).

func TestCycleCheckChain(t *testing.T) {
	a := NewValue(1, "a")
	d1 := Derive1("d1", a, func(x int) int { return x * 2 })
	d2 := Derive1("d2", d1, func(x int) int { return x + 1 })

	for _, n := range []AnyNode{a, d1, d2} {
		if err := CycleCheck(n); err != nil {
			t.Errorf("CycleCheck from %s: %v", n.Name(), err)
		}
	}
}

func TestCycleCheckTree(t *testing.T) {
	a := NewValue(1, "a")
	b := NewValue(2, "b")
	d := Derive2("d", a, b, func(x, y int) int { return x + y })
	e := Derive1("e", d, func(x int) int { return -x })

	for _, n := range []AnyNode{a, b, d, e} {
		if err := CycleCheck(n); err != nil {
			t.Errorf("CycleCheck from %s: %v", n.Name(), err)
		}
	}
}

// Fan-out that reconverges is a legal acyclic shape and must pass
// from every node in the component.
func TestCycleCheckDiamond(t *testing.T) {
	a := NewValue(1, "a")
	left := Derive1("left", a, func(x int) int { return x * 2 })
	right := Derive1("right", a, func(x int) int { return x + 1 })
	top := Derive2("top", left, right, func(l, r int) int { return l + r })

	for _, n := range []AnyNode{a, left, right, top} {
		if err := CycleCheck(n); err != nil {
			t.Errorf("CycleCheck from %s: %v", n.Name(), err)
		}
	}
}

// A cycle strictly upstream of the start node is still found: the
// walk gathers the whole component before testing it.
func TestCycleCheckUpstreamCycle(t *testing.T) {
	a := NewValue(1, "a")
	d1 := Derive1("d1", a, func(x int) int { return x })
	d2 := Derive1("d2", d1, func(x int) int { return x })
	leaf := Derive1("leaf", d2, func(x int) int { return x })

	d1.ins = append(d1.ins, d2)
	d2.st.outs = append(d2.st.outs, d1)

	err := CycleCheck(leaf)
	var cyc *CycleDetectedError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want *CycleDetectedError", err)
	}
}

func TestCycleCheckParallelEdge(t *testing.T) {
	a := NewValue(1, "a")
	d := Derive1("d", a, func(x int) int { return x })

	// A second entry for the same reader makes the edge parallel.
	a.st.outs = append(a.st.outs, d)

	err := CycleCheck(a)
	var cyc *CycleDetectedError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want *CycleDetectedError", err)
	}
}

func TestCycleCheckGenuineCycle(t *testing.T) {
	a := NewValue(1, "a")
	d1 := Derive1("d1", a, func(x int) int { return x })
	d2 := Derive1("d2", d1, func(x int) int { return x })

	// Close the loop: d2 feeds back into d1.
	d1.ins = append(d1.ins, d2)
	d2.st.outs = append(d2.st.outs, d1)

	err := CycleCheck(a)
	var cyc *CycleDetectedError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want *CycleDetectedError", err)
	}
}

func TestCycleCheckDisconnected(t *testing.T) {
	a := NewValue(1, "a")
	b := NewValue(2, "b")
	d := Derive1("d", b, func(x int) int { return x })
	d.ins = append(d.ins, d) // self-loop in another component
	d.st.outs = append(d.st.outs, d)

	// The check only covers the component reachable from start.
	if err := CycleCheck(a); err != nil {
		t.Errorf("CycleCheck from isolated node: %v", err)
	}
	if err := CycleCheck(b); err == nil {
		t.Error("self-loop not reported")
	}
}
