package graph

// Kind discriminates the three kinds of graph nodes.
type Kind string

const (
	KindValue    Kind = "value"
	KindObserver Kind = "observer"
	KindDerived  Kind = "derived"
)

// Change describes a value transition carried on a node's Updated hook.
type Change[T any] struct {
	Old T
	New T
	// FromUnset is true when the node had no value before this change;
	// Old is then the zero value of T.
	FromUnset bool
	// ToUnset is true when the node was cleared; New is then the zero
	// value of T.
	ToUnset bool
}

// nodeState is the bookkeeping embedded in every node: a diagnostic
// name, the ordered back-references to derived nodes that read this
// node, and the two evaluation flags.
type nodeState struct {
	name string
	kind Kind
	outs []AnyNode

	// hasUpdate: the stored value actually changed the last time it
	// was set or computed.
	hasUpdate bool
	// needsUpdate: a transitive input changed since the value was last
	// computed, so the cached value may be stale.
	needsUpdate bool
}

// AnyNode is the type-erased view of a graph node. It is what the
// cycle checker, the builder and the service layer traffic in; typed
// access goes through the concrete Value, Observer and Derived types.
type AnyNode interface {
	// Name returns the diagnostic label (not required to be unique).
	Name() string
	// Kind reports whether the node is a value, observer or derived node.
	Kind() Kind
	// HasUpdate reports whether the stored value changed the last time
	// it was set or computed.
	HasUpdate() bool
	// NeedsUpdate reports whether a transitive input has changed since
	// the value was last computed.
	NeedsUpdate() bool
	// GetAny returns the node's current value, lazily recomputing
	// derived ancestors as needed.
	GetAny() (any, error)
	// SetAny stores a new value. It fails with *TypeMismatchError on a
	// wrong dynamic type and *ReadOnlyNodeError on derived nodes.
	SetAny(v any) error
	// PeekAny returns the cached value without triggering computation.
	// The second result is false while the node is unset.
	PeekAny() (any, bool)
	// Inputs returns the node's declared inputs (nil for value and
	// observer nodes).
	Inputs() []AnyNode
	// Outputs returns the derived nodes that read this node.
	Outputs() []AnyNode

	state() *nodeState
}

func (s *nodeState) Name() string      { return s.name }
func (s *nodeState) Kind() Kind        { return s.kind }
func (s *nodeState) HasUpdate() bool   { return s.hasUpdate }
func (s *nodeState) NeedsUpdate() bool { return s.needsUpdate }

// attachOutput records reader as an output of in, keeping the list
// ordered and free of duplicates. Identity is pointer identity on the
// shared node state.
func attachOutput(in AnyNode, reader AnyNode) {
	st := in.state()
	for _, o := range st.outs {
		if o.state() == reader.state() {
			return
		}
	}
	st.outs = append(st.outs, reader)
}

// pushNeedsUpdate marks every node transitively downstream of s as
// needing recomputation. The walk is an iterative worklist with a
// visited set so that diamond fan-in is marked once and deep chains do
// not grow the call stack. A true cycle in the graph is a caller error
// surfaced by CycleCheck, not here.
func (s *nodeState) pushNeedsUpdate() {
	seen := make(map[*nodeState]struct{})
	stack := make([]AnyNode, len(s.outs))
	copy(stack, s.outs)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		st := n.state()
		if _, ok := seen[st]; ok {
			continue
		}
		seen[st] = struct{}{}
		st.needsUpdate = true
		stack = append(stack, st.outs...)
	}
}

func outputsOf(s *nodeState) []AnyNode {
	out := make([]AnyNode, len(s.outs))
	copy(out, s.outs)
	return out
}
