package graph_test

import (
	"errors"
	"testing"

	"github.com/calcgraph/calcgraph/internal/graph"
	"github.com/calcgraph/calcgraph/internal/hook"
)

func TestObserverFollowsSource(t *testing.T) {
	src := hook.New[int]("feed")
	o := graph.NewObserver("o", src)

	if _, err := o.Get(); err == nil {
		t.Fatal("Get before first emission succeeded")
	}

	src.Emit(7)
	if got, err := o.Get(); err != nil || got != 7 {
		t.Errorf("Get = %d, %v", got, err)
	}
	if o.Kind() != graph.KindObserver {
		t.Errorf("Kind = %v, want observer", o.Kind())
	}
}

func TestObserverEqualEmissionIsNoop(t *testing.T) {
	src := hook.New[string]("feed")
	o := graph.NewObserver("o", src)
	emits := 0
	o.Updated.Connect(func(graph.Change[string]) { emits++ })

	src.Emit("x")
	src.Emit("x")
	if emits != 1 {
		t.Errorf("emits = %d, want 1 (equal emission is a no-op)", emits)
	}
}

func TestObserverDrivesDerived(t *testing.T) {
	src := hook.New[float64]("rate")
	o := graph.NewObserver("rate", src)
	d := graph.Derive1("scaled", o, func(r float64) float64 { return r * 100 })

	src.Emit(1.25)
	if got, err := d.Get(); err != nil || got != 125.0 {
		t.Errorf("scaled = %v, %v", got, err)
	}

	src.Emit(1.5)
	if !d.NeedsUpdate() {
		t.Error("derived not dirtied by source emission")
	}
	if got, _ := d.Get(); got != 150.0 {
		t.Errorf("scaled = %v, want 150", got)
	}
}

func TestObserverDetach(t *testing.T) {
	src := hook.New[int]("feed")
	o := graph.NewObserver("o", src)

	src.Emit(1)
	o.Detach()
	src.Emit(2)

	if got, _ := o.Get(); got != 1 {
		t.Errorf("detached observer changed: got %d, want 1", got)
	}
	if src.Len() != 0 {
		t.Errorf("source still has %d observers after Detach", src.Len())
	}
}

func TestObserverDirectSetStillWorks(t *testing.T) {
	src := hook.New[int]("feed")
	o := graph.NewObserver("o", src)

	// An observer is a value underneath; direct writes keep full Set
	// semantics.
	o.Set(9)
	if got, err := o.Get(); err != nil || got != 9 {
		t.Errorf("Get = %d, %v", got, err)
	}
	var tm *graph.TypeMismatchError
	if err := o.SetAny("wrong"); !errors.As(err, &tm) {
		t.Errorf("SetAny err = %v, want *TypeMismatchError", err)
	}
}
