package graph

import "github.com/calcgraph/calcgraph/internal/hook"

// Observer is a Value whose writes arrive from an external event hook
// instead of direct Set calls. Construction subscribes the node to the
// hook; every emission forwards into Set with full Value semantics
// (equal values are no-ops, real changes propagate).
//
// The node never unsubscribes itself; the lifecycle of the source hook
// belongs to whoever owns it.
type Observer[T comparable] struct {
	Value[T]
	source *hook.Hook[T]
	conn   hook.Conn
}

// NewObserver creates an Observer fed by source. Get fails with
// *UnsetValueError until the first emission.
func NewObserver[T comparable](name string, source *hook.Hook[T]) *Observer[T] {
	o := &Observer[T]{Value: *NewEmptyValue[T](name), source: source}
	o.st.kind = KindObserver
	o.conn = source.Connect(o.Set)
	return o
}

// Source returns the hook this observer is subscribed to.
func (o *Observer[T]) Source() *hook.Hook[T] { return o.source }

// Detach disconnects the node from its source hook. Pending state and
// the stored value are untouched.
func (o *Observer[T]) Detach() {
	o.source.Disconnect(o.conn)
}
