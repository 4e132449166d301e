package graph

import "fmt"

// UnsetValueError is returned by Get when a node's stored value is
// still the unset sentinel. Callers can recover by supplying a value
// or treating the node as not ready.
type UnsetValueError struct {
	Node string
}

func (e *UnsetValueError) Error() string {
	return fmt.Sprintf("value for node %q has never been set", e.Node)
}

// ReadOnlyNodeError is returned by every write to a Derived node.
type ReadOnlyNodeError struct {
	Node string
}

func (e *ReadOnlyNodeError) Error() string {
	return fmt.Sprintf("node %q is derived and read-only", e.Node)
}

// CycleDetectedError is returned by CycleCheck when a dependency edge
// leads back to a node on the active traversal path, or when an edge
// is duplicated. It names both nodes on the incident edge.
type CycleDetectedError struct {
	NodeA string
	NodeB string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected involving %q and %q", e.NodeA, e.NodeB)
}

// TypeMismatchError is returned by SetAny when the dynamic type of the
// written value does not match the node's value type.
type TypeMismatchError struct {
	Node string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("node %q holds %s values, cannot store %s", e.Node, e.Want, e.Got)
}
