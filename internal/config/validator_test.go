package config_test

import (
	"strings"
	"testing"

	"github.com/calcgraph/calcgraph/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Version: "1",
		Graph: config.GraphSpec{
			Values: []config.ValueDef{
				{Name: "a", Initial: float64(1)},
				{Name: "b"},
			},
			Observers: []config.ObserverDef{
				{Name: "o", Source: "feed"},
			},
			Derived: []config.DerivedDef{
				{Name: "d", Expr: "a + b"},
			},
		},
		Sinks: []config.SinkDef{
			{Node: "d", Type: "log"},
		},
	}
}

func TestValidateOK(t *testing.T) {
	if err := config.Validate(validConfig()); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantMsg string
	}{
		{
			name:    "missing version",
			mutate:  func(c *config.Config) { c.Version = "" },
			wantMsg: "version is required",
		},
		{
			name: "duplicate name",
			mutate: func(c *config.Config) {
				c.Graph.Values = append(c.Graph.Values, config.ValueDef{Name: "d"})
			},
			wantMsg: "duplicate node name",
		},
		{
			name: "non-scalar initial",
			mutate: func(c *config.Config) {
				c.Graph.Values[0].Initial = []interface{}{1, 2}
			},
			wantMsg: "must be a number, string or bool",
		},
		{
			name: "observer without source",
			mutate: func(c *config.Config) {
				c.Graph.Observers[0].Source = ""
			},
			wantMsg: "source is required",
		},
		{
			name: "bad expression",
			mutate: func(c *config.Config) {
				c.Graph.Derived[0].Expr = "a +"
			},
			wantMsg: "compile",
		},
		{
			name: "input not referenced",
			mutate: func(c *config.Config) {
				c.Graph.Derived[0].Inputs = []string{"a", "b", "extra"}
			},
			wantMsg: "not referenced by the expression",
		},
		{
			name: "reference missing from inputs",
			mutate: func(c *config.Config) {
				c.Graph.Derived[0].Inputs = []string{"a"}
			},
			wantMsg: "missing from inputs",
		},
		{
			name: "sink on unknown node",
			mutate: func(c *config.Config) {
				c.Sinks[0].Node = "nosuch"
			},
			wantMsg: "unknown node",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tc.wantMsg)
			}
		})
	}
}
