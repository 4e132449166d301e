package graph

import "github.com/calcgraph/calcgraph/internal/hook"

// Graph holds the nodes built from a configuration, addressable by
// name, plus the source hooks feeding observer nodes. It is built once
// and swapped atomically on hot reload; node mutation goes through the
// nodes themselves.
type Graph struct {
	nodes   map[string]AnyNode
	order   []string
	sources map[string]*hook.Hook[any]
}

func newGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]AnyNode),
		sources: make(map[string]*hook.Hook[any]),
	}
}

func (g *Graph) add(n AnyNode) {
	g.nodes[n.Name()] = n
	g.order = append(g.order, n.Name())
}

// Node returns a node by name (nil if not found).
func (g *Graph) Node(name string) AnyNode {
	return g.nodes[name]
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []AnyNode {
	out := make([]AnyNode, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.nodes[name])
	}
	return out
}

// Source returns the hook feeding observer nodes declared with the
// given source name (nil if not found).
func (g *Graph) Source(name string) *hook.Hook[any] {
	return g.sources[name]
}

// SourceNames returns the names of all declared observer sources.
func (g *Graph) SourceNames() []string {
	out := make([]string, 0, len(g.sources))
	for name := range g.sources {
		out = append(out, name)
	}
	return out
}

// NodeCount returns the total number of registered nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// UpdatedHook returns the Updated hook of a node holding any-typed
// values, which is what the builder produces. It reports false for
// nodes of other value types.
func UpdatedHook(n AnyNode) (*hook.Hook[Change[any]], bool) {
	switch t := n.(type) {
	case *Value[any]:
		return t.Updated, true
	case *Observer[any]:
		return t.Updated, true
	case *Derived[any]:
		return t.Updated, true
	}
	return nil, false
}
