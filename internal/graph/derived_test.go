package graph_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/calcgraph/calcgraph/internal/graph"
)

func TestDerivedSum(t *testing.T) {
	a := graph.NewValue(1, "a")
	b := graph.NewValue(2, "b")
	sum := graph.Derive2("sum", a, b, func(x, y int) int { return x + y })

	got, err := sum.Get()
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != 3 {
		t.Errorf("sum = %d, want 3", got)
	}

	a.Set(5)
	got, _ = sum.Get()
	if got != 7 {
		t.Errorf("sum after a=5: %d, want 7", got)
	}
}

func TestDerivedLazy(t *testing.T) {
	a := graph.NewValue(1, "a")
	calls := 0
	d := graph.Derive1("d", a, func(x int) int {
		calls++
		return x * 2
	})

	a.Set(2)
	a.Set(3)
	if calls != 0 {
		t.Fatalf("compute ran %d times before any Get", calls)
	}

	if got, _ := d.Get(); got != 6 {
		t.Errorf("d = %d, want 6", got)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
}

func TestDerivedCachedGet(t *testing.T) {
	a := graph.NewValue(4, "a")
	calls := 0
	d := graph.Derive1("d", a, func(x int) int {
		calls++
		return x * x
	})

	d.Get()
	d.Get()
	d.Get()
	if calls != 1 {
		t.Errorf("compute ran %d times for repeated Get, want 1", calls)
	}
}

// A change that computes to the same result must not ripple further:
// abs(-1) and abs(1) are equal, so the downstream node neither
// recomputes nor emits.
func TestDerivedIdempotentChain(t *testing.T) {
	v := graph.NewValue(-1, "v")
	abs := graph.Derive1("abs", v, func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	})
	downCalls := 0
	down := graph.Derive1("down", abs, func(x int) int {
		downCalls++
		return x + 100
	})
	downEmits := 0
	down.Updated.Connect(func(graph.Change[int]) { downEmits++ })

	if got, _ := down.Get(); got != 101 {
		t.Fatalf("down = %d, want 101", got)
	}
	if downCalls != 1 {
		t.Fatalf("down computed %d times, want 1", downCalls)
	}

	v.Set(1) // abs unchanged
	if !down.NeedsUpdate() {
		t.Fatal("down not marked dirty after input write")
	}
	if got, _ := down.Get(); got != 101 {
		t.Errorf("down = %d, want 101", got)
	}
	if downCalls != 1 {
		t.Errorf("down recomputed despite unchanged direct input (calls=%d)", downCalls)
	}
	if downEmits != 1 {
		t.Errorf("down emitted %d times, want 1", downEmits)
	}
	if down.NeedsUpdate() || down.HasUpdate() {
		t.Errorf("flags not cleared: needsUpdate=%v hasUpdate=%v", down.NeedsUpdate(), down.HasUpdate())
	}
}

// An equal candidate keeps the cache and suppresses the emission even
// when a direct input did change.
func TestDerivedEqualCandidateNoEmit(t *testing.T) {
	v := graph.NewValue(-3, "v")
	calls, emits := 0, 0
	abs := graph.Derive1("abs", v, func(x int) int {
		calls++
		if x < 0 {
			return -x
		}
		return x
	})
	abs.Updated.Connect(func(graph.Change[int]) { emits++ })

	abs.Get()
	v.Set(3)
	abs.Get()

	if calls != 2 {
		t.Errorf("abs computed %d times, want 2", calls)
	}
	if emits != 1 {
		t.Errorf("abs emitted %d times, want 1", emits)
	}
	if abs.HasUpdate() {
		t.Error("hasUpdate still set after equal recomputation")
	}
}

func TestDerivedDiamond(t *testing.T) {
	a := graph.NewValue(1, "a")
	left := graph.Derive1("left", a, func(x int) int { return x * 2 })
	right := graph.Derive1("right", a, func(x int) int { return x + 10 })
	calls := 0
	top := graph.Derive2("top", left, right, func(l, r int) int {
		calls++
		return l + r
	})

	if got, _ := top.Get(); got != 13 {
		t.Errorf("top = %d, want 13", got)
	}
	a.Set(2)
	if got, _ := top.Get(); got != 16 {
		t.Errorf("top after a=2: %d, want 16", got)
	}
	if calls != 2 {
		t.Errorf("top computed %d times, want 2", calls)
	}
}

func TestDerivedSetReadOnly(t *testing.T) {
	a := graph.NewValue(1, "a")
	d := graph.Derive1("d", a, func(x int) int { return x })

	var ro *graph.ReadOnlyNodeError
	if err := d.Set(5); !errors.As(err, &ro) {
		t.Errorf("Set err = %v, want *ReadOnlyNodeError", err)
	}
	if err := d.SetAny("anything"); !errors.As(err, &ro) {
		t.Errorf("SetAny err = %v, want *ReadOnlyNodeError", err)
	}
}

func TestDerivedUnsetInput(t *testing.T) {
	a := graph.NewEmptyValue[int]("a")
	d := graph.Derive1("d", a, func(x int) int { return x + 1 })

	_, err := d.Get()
	var unset *graph.UnsetValueError
	if !errors.As(err, &unset) {
		t.Fatalf("Get err = %v, want *UnsetValueError", err)
	}
	if unset.Node != "a" {
		t.Errorf("error names node %q, want the unset input", unset.Node)
	}

	// The failure leaves the node dirty so the next Get retries.
	a.Set(41)
	if got, err := d.Get(); err != nil || got != 42 {
		t.Errorf("Get after input set = %d, %v", got, err)
	}
}

func TestDerivedComputeErrorRetries(t *testing.T) {
	a := graph.NewValue(1, "a")
	fail := true
	d, err := graph.NewDerived("d", []graph.AnyNode{a}, func() (int, error) {
		if fail {
			return 0, fmt.Errorf("transient")
		}
		v, _ := a.Get()
		return v * 10, nil
	})
	if err != nil {
		t.Fatalf("NewDerived: %v", err)
	}

	if _, err := d.Get(); err == nil {
		t.Fatal("expected compute error")
	}
	if !d.NeedsUpdate() {
		t.Fatal("failed compute cleared the dirty flag")
	}

	fail = false
	if got, err := d.Get(); err != nil || got != 10 {
		t.Errorf("Get after recovery = %d, %v", got, err)
	}
}

func TestNewDerivedNilCompute(t *testing.T) {
	a := graph.NewValue(1, "a")
	if _, err := graph.NewDerived[int]("d", []graph.AnyNode{a}, nil); err == nil {
		t.Error("NewDerived accepted a nil compute function")
	}
}

func TestDeriveN(t *testing.T) {
	a := graph.NewValue(1.0, "a")
	b := graph.NewValue(2.0, "b")
	c := graph.NewValue(3.0, "c")
	total := graph.DeriveN("total", func(vs []float64) float64 {
		sum := 0.0
		for _, v := range vs {
			sum += v
		}
		return sum
	}, a, b, c)

	if got, _ := total.Get(); got != 6.0 {
		t.Errorf("total = %v, want 6", got)
	}
}

func TestDerivedEdges(t *testing.T) {
	a := graph.NewValue(1, "a")
	b := graph.NewValue(2, "b")
	d := graph.Derive2("d", a, b, func(x, y int) int { return x + y })

	ins := d.Inputs()
	if len(ins) != 2 || ins[0].Name() != "a" || ins[1].Name() != "b" {
		t.Errorf("Inputs order wrong: %v", names(ins))
	}
	outs := a.Outputs()
	if len(outs) != 1 || outs[0].Name() != "d" {
		t.Errorf("a.Outputs = %v, want [d]", names(outs))
	}
}

func names(ns []graph.AnyNode) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Name()
	}
	return out
}
