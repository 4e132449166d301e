package graph

import (
	"errors"
	"fmt"

	"github.com/calcgraph/calcgraph/internal/hook"
)

// Derived is a read-only node whose value is computed from a fixed,
// ordered list of input nodes. Evaluation is pull-based: nothing is
// computed until Get, and Get only recomputes while the node is marked
// as needing an update.
type Derived[T comparable] struct {
	st      nodeState
	ins     []AnyNode
	compute func() (T, error)
	val     T
	set     bool

	// Updated fires synchronously when a recomputation produced a value
	// different from the cached one.
	Updated *hook.Hook[Change[T]]
}

// NewDerived creates a Derived node over the given inputs. The compute
// function is invoked with all inputs already pulled clean; it should
// read them and return the node's new value. Inputs are fixed for the
// node's lifetime and the bidirectional edges are established here.
//
// A nil compute function is rejected: there is nothing meaningful such
// a node could return.
func NewDerived[T comparable](name string, inputs []AnyNode, compute func() (T, error)) (*Derived[T], error) {
	if compute == nil {
		return nil, errors.New("derived node must have a compute function")
	}
	d := &Derived[T]{
		st:      nodeState{name: name, kind: KindDerived, hasUpdate: true, needsUpdate: true},
		ins:     make([]AnyNode, len(inputs)),
		compute: compute,
		Updated: hook.New[Change[T]](name + ".updated"),
	}
	copy(d.ins, inputs)
	for _, in := range d.ins {
		attachOutput(in, d)
	}
	return d, nil
}

func (d *Derived[T]) state() *nodeState { return &d.st }

func (d *Derived[T]) Name() string      { return d.st.name }
func (d *Derived[T]) Kind() Kind        { return d.st.kind }
func (d *Derived[T]) HasUpdate() bool   { return d.st.hasUpdate }
func (d *Derived[T]) NeedsUpdate() bool { return d.st.needsUpdate }

func (d *Derived[T]) Inputs() []AnyNode {
	ins := make([]AnyNode, len(d.ins))
	copy(ins, d.ins)
	return ins
}

func (d *Derived[T]) Outputs() []AnyNode { return outputsOf(&d.st) }

// Get returns the node's value, recomputing it first if an upstream
// change marked this node dirty. A compute error propagates out
// unwrapped and leaves the flags untouched, so the next Get retries.
func (d *Derived[T]) Get() (T, error) {
	if !d.st.needsUpdate {
		return d.ensure()
	}
	if err := d.recompute(); err != nil {
		var zero T
		return zero, err
	}
	return d.ensure()
}

// recompute runs the dirty-resolution protocol:
//
//  1. Pull every input in declared order, depth-first resolving any
//     dirty derived ancestors.
//  2. If no direct input actually changed, the dirtiness was spurious:
//     clear both flags and keep the cached value (no emission).
//  3. Compute a candidate from the fresh inputs.
//  4. A candidate equal to the cached value is treated like step 2.
//  5. Otherwise cache the candidate, emit Updated and mark the change.
func (d *Derived[T]) recompute() error {
	for _, in := range d.ins {
		if _, err := in.GetAny(); err != nil {
			return err
		}
	}

	changed := false
	for _, in := range d.ins {
		if in.HasUpdate() {
			changed = true
			break
		}
	}
	if !changed {
		d.st.needsUpdate = false
		d.st.hasUpdate = false
		return nil
	}

	candidate, err := d.compute()
	if err != nil {
		return err
	}

	if d.set && candidate == d.val {
		d.st.hasUpdate = false
		d.st.needsUpdate = false
		return nil
	}

	old, wasSet := d.val, d.set
	d.val = candidate
	d.set = true
	d.Updated.Emit(Change[T]{Old: old, New: candidate, FromUnset: !wasSet})
	d.st.hasUpdate = true
	d.st.needsUpdate = false
	return nil
}

func (d *Derived[T]) ensure() (T, error) {
	if !d.set {
		var zero T
		return zero, &UnsetValueError{Node: d.st.name}
	}
	return d.val, nil
}

// Set always fails: derived nodes are read-only.
func (d *Derived[T]) Set(T) error {
	return &ReadOnlyNodeError{Node: d.st.name}
}

// GetAny implements AnyNode.
func (d *Derived[T]) GetAny() (any, error) {
	val, err := d.Get()
	if err != nil {
		return nil, err
	}
	return val, nil
}

// SetAny implements AnyNode and fails unconditionally, whatever the
// argument.
func (d *Derived[T]) SetAny(any) error {
	return &ReadOnlyNodeError{Node: d.st.name}
}

// PeekAny implements AnyNode. It never computes: before the first
// successful Get it reports no value.
func (d *Derived[T]) PeekAny() (any, bool) {
	if !d.set {
		return nil, false
	}
	return d.val, true
}

// String renders a diagnostic representation including the flags.
func (d *Derived[T]) String() string {
	flags := ""
	if d.st.hasUpdate {
		flags += ", has update"
	}
	if d.st.needsUpdate {
		flags += ", needs update"
	}
	if !d.set {
		return fmt.Sprintf("<%s %s: unset%s>", d.st.kind, d.st.name, flags)
	}
	return fmt.Sprintf("<%s %s: %v%s>", d.st.kind, d.st.name, d.val, flags)
}
