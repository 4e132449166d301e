package graph_test

import (
	"strings"
	"testing"

	"github.com/calcgraph/calcgraph/internal/config"
	"github.com/calcgraph/calcgraph/internal/graph"
)

func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	cfg := &config.Config{
		Version: "1",
		Graph: config.GraphSpec{
			Values: []config.ValueDef{
				{Name: "base_price", Initial: 100},
				{Name: "quantity", Initial: 2},
				{Name: "discount_pct", Initial: float64(10)},
				{Name: "note"},
			},
			Observers: []config.ObserverDef{
				{Name: "fx_rate", Source: "pricing_feed"},
			},
			Derived: []config.DerivedDef{
				// Declared before its input to exercise multi-pass
				// resolution.
				{Name: "total", Expr: "subtotal - subtotal * discount_pct / 100"},
				{Name: "subtotal", Expr: "base_price * quantity"},
			},
		},
	}
	g, err := graph.Build(cfg)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return g
}

func TestBuildAndEvaluate(t *testing.T) {
	g := buildTestGraph(t)

	if g.NodeCount() != 7 {
		t.Errorf("NodeCount = %d, want 7", g.NodeCount())
	}

	total := g.Node("total")
	if total == nil {
		t.Fatal("node total missing")
	}
	v, err := total.GetAny()
	if err != nil {
		t.Fatalf("total.GetAny: %v", err)
	}
	if v != float64(180) {
		t.Errorf("total = %v, want 180", v)
	}

	// Integer initials are folded to float64 so expression results
	// compare cleanly.
	if err := g.Node("quantity").SetAny(float64(3)); err != nil {
		t.Fatalf("quantity.SetAny: %v", err)
	}
	v, _ = total.GetAny()
	if v != float64(270) {
		t.Errorf("total after quantity=3: %v, want 270", v)
	}
}

func TestBuildObserverSource(t *testing.T) {
	g := buildTestGraph(t)

	src := g.Source("pricing_feed")
	if src == nil {
		t.Fatal("source pricing_feed missing")
	}
	fx := g.Node("fx_rate")
	if _, err := fx.GetAny(); err == nil {
		t.Fatal("observer had a value before any emission")
	}

	src.Emit(float64(1.25))
	v, err := fx.GetAny()
	if err != nil || v != float64(1.25) {
		t.Errorf("fx_rate = %v, %v", v, err)
	}
}

func TestBuildEmptyValueStartsUnset(t *testing.T) {
	g := buildTestGraph(t)
	if _, err := g.Node("note").GetAny(); err == nil {
		t.Error("value without initial had a value")
	}
}

func TestBuildExplicitInputOrder(t *testing.T) {
	cfg := &config.Config{
		Version: "1",
		Graph: config.GraphSpec{
			Values: []config.ValueDef{
				{Name: "a", Initial: float64(1)},
				{Name: "b", Initial: float64(2)},
			},
			Derived: []config.DerivedDef{
				{Name: "d", Expr: "a + b", Inputs: []string{"b", "a"}},
			},
		},
	}
	g, err := graph.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ins := g.Node("d").Inputs()
	if len(ins) != 2 || ins[0].Name() != "b" || ins[1].Name() != "a" {
		t.Errorf("explicit input order not honored: %v", names(ins))
	}
}

func TestBuildCyclicDerived(t *testing.T) {
	cfg := &config.Config{
		Version: "1",
		Graph: config.GraphSpec{
			Derived: []config.DerivedDef{
				{Name: "x", Expr: "y + 1"},
				{Name: "y", Expr: "x + 1"},
			},
		},
	}
	_, err := graph.Build(cfg)
	if err == nil {
		t.Fatal("cyclic derived definitions built successfully")
	}
	if !strings.Contains(err.Error(), "x") || !strings.Contains(err.Error(), "y") {
		t.Errorf("error does not name the stuck nodes: %v", err)
	}
}

func TestBuildUnknownReference(t *testing.T) {
	cfg := &config.Config{
		Version: "1",
		Graph: config.GraphSpec{
			Derived: []config.DerivedDef{
				{Name: "d", Expr: "nosuch * 2"},
			},
		},
	}
	if _, err := graph.Build(cfg); err == nil {
		t.Fatal("unknown reference built successfully")
	}
}

func TestUpdatedHook(t *testing.T) {
	g := buildTestGraph(t)
	h, ok := graph.UpdatedHook(g.Node("total"))
	if !ok || h == nil {
		t.Fatal("UpdatedHook not available for built node")
	}

	emits := 0
	h.Connect(func(graph.Change[any]) { emits++ })
	g.Node("total").GetAny()
	if emits != 1 {
		t.Errorf("emits = %d, want 1", emits)
	}
}
