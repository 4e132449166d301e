package config

// Config is the top-level YAML structure.
type Config struct {
	Version string     `yaml:"version"`
	Engine  EngineConf `yaml:"engine"`
	Graph   GraphSpec  `yaml:"graph"`
	Sinks   []SinkDef  `yaml:"sinks"`
}

// EngineConf holds tunable write-queue settings.
type EngineConf struct {
	WriteWorkers   int `yaml:"write_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	WriteTimeoutMs int `yaml:"write_timeout_ms"`
}

// GraphSpec declares the nodes of the computation graph.
type GraphSpec struct {
	Values    []ValueDef    `yaml:"values"`
	Observers []ObserverDef `yaml:"observers"`
	Derived   []DerivedDef  `yaml:"derived"`
}

// ValueDef declares a writable leaf node, optionally with an initial
// value (a number, string or bool). Without one the node starts unset.
type ValueDef struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Initial     interface{} `yaml:"initial"`
}

// ObserverDef declares a leaf node fed by a named source hook instead
// of direct writes.
type ObserverDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Source      string `yaml:"source"`
}

// DerivedDef declares a computed node. Inputs may be listed explicitly
// to pin their order; otherwise they default to the expression's
// references in first-appearance order.
type DerivedDef struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Expr        string   `yaml:"expr"`
	Inputs      []string `yaml:"inputs"`
}

// SinkDef binds a sink instance to a node's update stream.
type SinkDef struct {
	Node   string                 `yaml:"node"`
	Type   string                 `yaml:"type"`
	Params map[string]interface{} `yaml:"params"`
}
