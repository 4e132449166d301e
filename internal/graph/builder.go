package graph

import (
	"fmt"
	"strings"

	"github.com/calcgraph/calcgraph/internal/config"
	"github.com/calcgraph/calcgraph/internal/expr"
	"github.com/calcgraph/calcgraph/internal/hook"
)

// Build constructs a graph from a validated config. All expressions
// are compiled here; evaluation at read time only walks pre-built
// ASTs. Derived nodes may reference each other in any declaration
// order; they are resolved over multiple passes, and a remainder that
// never resolves (an unknown reference or a reference cycle) is a
// build error.
func Build(cfg *config.Config) (*Graph, error) {
	g := newGraph()

	for _, v := range cfg.Graph.Values {
		if v.Initial != nil {
			g.add(NewValue[any](normalizeScalar(v.Initial), v.Name))
			continue
		}
		g.add(NewEmptyValue[any](v.Name))
	}

	for _, o := range cfg.Graph.Observers {
		src := g.sources[o.Source]
		if src == nil {
			src = hook.New[any](o.Source)
			g.sources[o.Source] = src
		}
		g.add(NewObserver[any](o.Name, src))
	}

	pending := make([]config.DerivedDef, len(cfg.Graph.Derived))
	copy(pending, cfg.Graph.Derived)

	for len(pending) > 0 {
		var next []config.DerivedDef
		progress := false
		for _, d := range pending {
			node, ok, err := buildDerived(g, d)
			if err != nil {
				return nil, err
			}
			if !ok {
				next = append(next, d)
				continue
			}
			g.add(node)
			progress = true
		}
		if !progress {
			return nil, fmt.Errorf("derived nodes %s reference each other cyclically or name unknown nodes",
				strings.Join(pendingNames(next), ", "))
		}
		pending = next
	}

	return g, nil
}

// buildDerived attempts to construct one derived node. The second
// result is false when an input is not built yet, which may resolve on
// a later pass.
func buildDerived(g *Graph, d config.DerivedDef) (AnyNode, bool, error) {
	prog, err := expr.Compile(d.Expr)
	if err != nil {
		return nil, false, fmt.Errorf("derived %s: compile %q: %w", d.Name, d.Expr, err)
	}

	inputNames := d.Inputs
	if len(inputNames) == 0 {
		inputNames = prog.Refs()
	}
	if len(inputNames) == 0 {
		return nil, false, fmt.Errorf("derived %s: expression references no nodes", d.Name)
	}

	inputs := make([]AnyNode, len(inputNames))
	byName := make(map[string]AnyNode, len(inputNames))
	for i, name := range inputNames {
		in := g.Node(name)
		if in == nil {
			return nil, false, nil // maybe built on a later pass
		}
		inputs[i] = in
		byName[name] = in
	}

	env := expr.EnvFunc(func(name string) (any, bool) {
		in, ok := byName[name]
		if !ok {
			return nil, false
		}
		v, err := in.GetAny()
		if err != nil {
			return nil, false
		}
		return v, true
	})

	node, err := NewDerived(d.Name, inputs, func() (any, error) {
		v, err := prog.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("derived %s: %w", d.Name, err)
		}
		return v, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("derived %s: %w", d.Name, err)
	}
	return node, true, nil
}

func pendingNames(defs []config.DerivedDef) []string {
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// normalizeScalar folds all numeric YAML/JSON scalars to float64 so
// that value equality is stable between configured initial values and
// decoded writes.
func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}
