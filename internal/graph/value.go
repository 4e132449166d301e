package graph

import (
	"fmt"
	"reflect"

	"github.com/calcgraph/calcgraph/internal/hook"
)

// Value is a mutable leaf node holding a value of type T. It is the
// entry point for external writes; derived nodes read it through the
// graph edges established at their construction.
type Value[T comparable] struct {
	st  nodeState
	val T
	set bool

	// Updated fires synchronously, in the calling goroutine, after a
	// write that actually changed the stored value.
	Updated *hook.Hook[Change[T]]
}

// NewValue creates a Value holding an initial value.
func NewValue[T comparable](initial T, name string) *Value[T] {
	v := NewEmptyValue[T](name)
	v.val = initial
	v.set = true
	return v
}

// NewEmptyValue creates a Value in the unset state; Get fails until
// the first Set.
func NewEmptyValue[T comparable](name string) *Value[T] {
	return &Value[T]{
		st:      nodeState{name: name, kind: KindValue, hasUpdate: true},
		Updated: hook.New[Change[T]](name + ".updated"),
	}
}

func (v *Value[T]) state() *nodeState { return &v.st }

func (v *Value[T]) Name() string      { return v.st.name }
func (v *Value[T]) Kind() Kind        { return v.st.kind }
func (v *Value[T]) HasUpdate() bool   { return v.st.hasUpdate }
func (v *Value[T]) NeedsUpdate() bool { return v.st.needsUpdate }

// Inputs returns nil: value nodes have no inputs.
func (v *Value[T]) Inputs() []AnyNode  { return nil }
func (v *Value[T]) Outputs() []AnyNode { return outputsOf(&v.st) }

// Get returns the stored value, or *UnsetValueError while unset.
func (v *Value[T]) Get() (T, error) {
	if !v.set {
		var zero T
		return zero, &UnsetValueError{Node: v.st.name}
	}
	return v.val, nil
}

// Set stores a new value. Writing a value equal to the current one is
// a no-op with no side effects. A real change emits Updated, marks
// this node as having an update and marks every transitive output as
// needing recomputation, all before Set returns.
func (v *Value[T]) Set(newValue T) {
	if v.set && v.val == newValue {
		return
	}
	old, wasSet := v.val, v.set
	v.val = newValue
	v.set = true
	v.Updated.Emit(Change[T]{Old: old, New: newValue, FromUnset: !wasSet})
	v.st.hasUpdate = true
	v.st.pushNeedsUpdate()
}

// Unset returns the node to the unset state. Like any real change it
// emits Updated, marks the node updated and dirties all descendants;
// a later pull through a descendant surfaces *UnsetValueError.
func (v *Value[T]) Unset() {
	if !v.set {
		return
	}
	old := v.val
	var zero T
	v.val = zero
	v.set = false
	v.Updated.Emit(Change[T]{Old: old, New: zero, ToUnset: true})
	v.st.hasUpdate = true
	v.st.pushNeedsUpdate()
}

// GetAny implements AnyNode.
func (v *Value[T]) GetAny() (any, error) {
	val, err := v.Get()
	if err != nil {
		return nil, err
	}
	return val, nil
}

// SetAny implements AnyNode. The value must have the node's dynamic
// value type. When T is an interface type the dynamic value must also
// be comparable, or Set's equality check could not run.
func (v *Value[T]) SetAny(value any) error {
	t, ok := value.(T)
	if !ok {
		var zero T
		return &TypeMismatchError{
			Node: v.st.name,
			Want: fmt.Sprintf("%T", zero),
			Got:  fmt.Sprintf("%T", value),
		}
	}
	if value != nil && !reflect.TypeOf(value).Comparable() {
		return &TypeMismatchError{
			Node: v.st.name,
			Want: "comparable",
			Got:  fmt.Sprintf("%T", value),
		}
	}
	v.Set(t)
	return nil
}

// PeekAny implements AnyNode.
func (v *Value[T]) PeekAny() (any, bool) {
	if !v.set {
		return nil, false
	}
	return v.val, true
}

// String renders a diagnostic representation.
func (v *Value[T]) String() string {
	if !v.set {
		return fmt.Sprintf("<%s %s: unset>", v.st.kind, v.st.name)
	}
	return fmt.Sprintf("<%s %s: %v>", v.st.kind, v.st.name, v.val)
}
