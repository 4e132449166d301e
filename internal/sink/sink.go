package sink

// Update carries one node value change into a sink.
type Update struct {
	Node      string
	Old       interface{}
	New       interface{}
	FromUnset bool
	ToUnset   bool
}

// Sink consumes the update stream of one node.
type Sink interface {
	// Consume is called synchronously for every value change of the
	// bound node; implementations should return quickly.
	Consume(u Update)
}

// Factory builds sink instances from config params.
type Factory interface {
	// Type returns the string key this factory is registered under.
	Type() string
	// New builds a sink bound to the named node. Params come straight
	// from the config and should be validated here.
	New(node string, params map[string]interface{}) (Sink, error)
}
