package config

import (
	"fmt"
	"strings"

	"github.com/calcgraph/calcgraph/internal/expr"
)

// Validate checks the config for:
//   - Duplicate node names across values, observers and derived nodes
//   - Non-scalar initial values (equality must be well defined)
//   - Expressions that fail to compile
//   - Explicit inputs and sink targets that reference unknown nodes
//
// Dependency resolution between derived nodes (including cycles) is
// left to the graph builder, which sees the actual edges.
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	names := make(map[string]string) // name → location
	var errs []string

	for i, v := range cfg.Graph.Values {
		if v.Name == "" {
			errs = append(errs, fmt.Sprintf("values[%d]: name is required", i))
			continue
		}
		recordName(names, v.Name, fmt.Sprintf("value %s", v.Name), &errs)
		if v.Initial != nil && !IsScalar(v.Initial) {
			errs = append(errs, fmt.Sprintf("value %s: initial must be a number, string or bool, got %T", v.Name, v.Initial))
		}
	}

	for i, o := range cfg.Graph.Observers {
		if o.Name == "" {
			errs = append(errs, fmt.Sprintf("observers[%d]: name is required", i))
			continue
		}
		recordName(names, o.Name, fmt.Sprintf("observer %s", o.Name), &errs)
		if o.Source == "" {
			errs = append(errs, fmt.Sprintf("observer %s: source is required", o.Name))
		}
	}

	for i, d := range cfg.Graph.Derived {
		if d.Name == "" {
			errs = append(errs, fmt.Sprintf("derived[%d]: name is required", i))
			continue
		}
		recordName(names, d.Name, fmt.Sprintf("derived %s", d.Name), &errs)
		if d.Expr == "" {
			errs = append(errs, fmt.Sprintf("derived %s: expr is required", d.Name))
			continue
		}
		prog, err := expr.Compile(d.Expr)
		if err != nil {
			errs = append(errs, fmt.Sprintf("derived %s: compile %q: %s", d.Name, d.Expr, err))
			continue
		}
		refs := make(map[string]struct{})
		for _, r := range prog.Refs() {
			refs[r] = struct{}{}
		}
		if len(d.Inputs) > 0 {
			declared := make(map[string]struct{}, len(d.Inputs))
			for _, in := range d.Inputs {
				declared[in] = struct{}{}
				if _, ok := refs[in]; !ok {
					errs = append(errs, fmt.Sprintf("derived %s: input %q is not referenced by the expression", d.Name, in))
				}
			}
			for _, r := range prog.Refs() {
				if _, ok := declared[r]; !ok {
					errs = append(errs, fmt.Sprintf("derived %s: expression references %q, missing from inputs", d.Name, r))
				}
			}
		}
	}

	for i, s := range cfg.Sinks {
		if s.Node == "" || s.Type == "" {
			errs = append(errs, fmt.Sprintf("sinks[%d]: node and type are required", i))
			continue
		}
		if _, ok := names[s.Node]; !ok {
			errs = append(errs, fmt.Sprintf("sink on %s: unknown node", s.Node))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func recordName(names map[string]string, name, loc string, errs *[]string) {
	if prev, ok := names[name]; ok {
		*errs = append(*errs, fmt.Sprintf("duplicate node name %q (first seen at %s, again at %s)", name, prev, loc))
		return
	}
	names[name] = loc
}

// IsScalar reports whether v is a plain number, string or bool, the
// only value kinds nodes hold. The engine applies the same rule to
// runtime writes that this validator applies to configured initials.
func IsScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	}
	return false
}
