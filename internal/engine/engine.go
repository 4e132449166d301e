package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calcgraph/calcgraph/internal/config"
	"github.com/calcgraph/calcgraph/internal/graph"
	"github.com/calcgraph/calcgraph/internal/metrics"
	"github.com/calcgraph/calcgraph/internal/sink"
)

// Sentinel errors for the write and emit paths; callers match them
// with errors.Is.
var (
	ErrUnknownNode    = errors.New("unknown node")
	ErrUnknownSource  = errors.New("unknown source")
	ErrNonScalarValue = errors.New("value must be a number, string or bool")
	ErrQueueFull      = errors.New("write queue full")
	ErrWriteTimeout   = errors.New("write timeout")
)

// WriteResult is the outcome of applying a single write.
type WriteResult struct {
	Node       string `json:"node"`
	Changed    bool   `json:"changed"`
	DurationMs int64  `json:"duration_ms"`
}

// ReadResult is the outcome of a lazy read.
type ReadResult struct {
	Node        string      `json:"node"`
	Kind        string      `json:"kind"`
	Value       interface{} `json:"value"`
	HasUpdate   bool        `json:"has_update"`
	NeedsUpdate bool        `json:"needs_update"`
	DurationMs  int64       `json:"duration_ms"`
}

// NodeInfo is a non-computing diagnostic snapshot of one node.
type NodeInfo struct {
	Name        string      `json:"name"`
	Kind        string      `json:"kind"`
	Value       interface{} `json:"value,omitempty"`
	Set         bool        `json:"set"`
	HasUpdate   bool        `json:"has_update"`
	NeedsUpdate bool        `json:"needs_update"`
	Inputs      []string    `json:"inputs,omitempty"`
	Outputs     []string    `json:"outputs,omitempty"`
}

// Engine owns a graph and serializes all access to it. The graph core
// carries no locking of its own, so every read, write and source
// emission goes through the engine's mutex; writes additionally pass
// through a bounded queue served by a worker pool.
type Engine struct {
	mu       sync.Mutex
	graph    *graph.Graph
	registry *sink.Registry
	unwire   []func()
	pool     *workerPool[*writeWork]
	conf     *config.EngineConf
}

type writeWork struct {
	name    string
	value   interface{}
	resultC chan writeOutcome
}

type writeOutcome struct {
	res *WriteResult
	err error
}

// New creates an Engine over g, wires the configured sinks and starts
// the write pool.
func New(ctx context.Context, g *graph.Graph, reg *sink.Registry, sinks []config.SinkDef, conf config.EngineConf) (*Engine, error) {
	e := &Engine{registry: reg, conf: &conf}
	if err := e.install(g, sinks); err != nil {
		return nil, err
	}

	e.pool = newWorkerPool(ctx, conf.WriteWorkers, conf.QueueDepth, func(ctx context.Context, w *writeWork) {
		res, err := e.applyWrite(w.name, w.value)
		if w.resultC != nil {
			w.resultC <- writeOutcome{res: res, err: err}
		}
	})
	return e, nil
}

// SwapGraph replaces the graph and its sink bindings (used on hot-reload).
func (e *Engine) SwapGraph(g *graph.Graph, sinks []config.SinkDef) error {
	return e.install(g, sinks)
}

// install swaps in a new graph under the lock, rebinding metrics
// watchers and sinks and releasing the old graph's subscriptions.
func (e *Engine) install(g *graph.Graph, sinkDefs []config.SinkDef) error {
	bound := make(map[string][]sink.Sink)
	for _, def := range sinkDefs {
		factory, err := e.registry.Get(def.Type)
		if err != nil {
			return fmt.Errorf("sink on %s: %w", def.Node, err)
		}
		s, err := factory.New(def.Node, def.Params)
		if err != nil {
			return fmt.Errorf("sink on %s: %w", def.Node, err)
		}
		bound[def.Node] = append(bound[def.Node], s)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, disconnect := range e.unwire {
		disconnect()
	}
	e.unwire = nil

	for _, n := range g.Nodes() {
		hk, ok := graph.UpdatedHook(n)
		if !ok {
			continue
		}
		name := n.Name()
		sinks := bound[name]
		conn := hk.Connect(func(c graph.Change[any]) {
			metrics.NodeUpdates.WithLabelValues(name).Inc()
			for _, s := range sinks {
				s.Consume(sink.Update{
					Node:      name,
					Old:       c.Old,
					New:       c.New,
					FromUnset: c.FromUnset,
					ToUnset:   c.ToUnset,
				})
			}
		})
		hkRef, connRef := hk, conn
		e.unwire = append(e.unwire, func() { hkRef.Disconnect(connRef) })
	}

	e.graph = g
	metrics.GraphNodes.Set(float64(g.NodeCount()))
	return nil
}

// Write applies a value write synchronously and returns the result.
// It fails fast when the queue is full.
func (e *Engine) Write(ctx context.Context, name string, value interface{}) (*WriteResult, error) {
	resultC := make(chan writeOutcome, 1)
	w := &writeWork{name: name, value: value, resultC: resultC}

	timeout := time.Duration(e.conf.WriteTimeoutMs) * time.Millisecond
	if !e.pool.Submit(w) {
		metrics.WritesDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.WritesEnqueued.Inc()

	select {
	case out := <-resultC:
		return out.res, out.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v", ErrWriteTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WriteAsync enqueues a write for background processing. Returns false
// if the queue is full.
func (e *Engine) WriteAsync(name string, value interface{}) bool {
	w := &writeWork{name: name, value: value}
	if !e.pool.Submit(w) {
		metrics.WritesDropped.Inc()
		return false
	}
	metrics.WritesEnqueued.Inc()
	return true
}

func (e *Engine) applyWrite(name string, value interface{}) (*WriteResult, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.graph.Node(name)
	if n == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownNode, name)
	}
	// Node values must stay scalar: equality on them has to be well
	// defined for the no-op and idempotence checks.
	if !config.IsScalar(value) {
		return nil, fmt.Errorf("%w: node %q got %T", ErrNonScalarValue, name, value)
	}

	old, wasSet := n.PeekAny()
	if err := n.SetAny(value); err != nil {
		return nil, err
	}
	newVal, _ := n.PeekAny()

	changed := !wasSet || old != newVal
	if changed {
		metrics.WritesApplied.Inc()
	} else {
		metrics.WritesNoop.Inc()
	}

	return &WriteResult{
		Node:       name,
		Changed:    changed,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// EmitSource emits a value into the named observer source hook. The
// subscribed observer nodes apply it synchronously under the engine
// lock.
func (e *Engine) EmitSource(source string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	hk := e.graph.Source(source)
	if hk == nil {
		return fmt.Errorf("%w %q", ErrUnknownSource, source)
	}
	if !config.IsScalar(value) {
		return fmt.Errorf("%w: source %q got %T", ErrNonScalarValue, source, value)
	}
	hk.Emit(value)
	metrics.SourceEmits.WithLabelValues(source).Inc()
	return nil
}

// Read returns the node's current value, lazily recomputing any dirty
// derived ancestors first.
func (e *Engine) Read(name string) (*ReadResult, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.graph.Node(name)
	if n == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownNode, name)
	}

	v, err := n.GetAny()
	elapsed := time.Since(start)
	metrics.ReadDuration.Observe(float64(elapsed.Microseconds()) / 1000)
	if err != nil {
		metrics.Reads.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.Reads.WithLabelValues("ok").Inc()

	return &ReadResult{
		Node:        name,
		Kind:        string(n.Kind()),
		Value:       v,
		HasUpdate:   n.HasUpdate(),
		NeedsUpdate: n.NeedsUpdate(),
		DurationMs:  elapsed.Milliseconds(),
	}, nil
}

// Snapshot reports every node's cached state without computing anything.
func (e *Engine) Snapshot() []NodeInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	nodes := e.graph.Nodes()
	out := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		v, set := n.PeekAny()
		out = append(out, NodeInfo{
			Name:        n.Name(),
			Kind:        string(n.Kind()),
			Value:       v,
			Set:         set,
			HasUpdate:   n.HasUpdate(),
			NeedsUpdate: n.NeedsUpdate(),
			Inputs:      nodeNames(n.Inputs()),
			Outputs:     nodeNames(n.Outputs()),
		})
	}
	return out
}

// CheckCycles runs the cycle checker from every node in the graph.
func (e *Engine) CheckCycles() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, n := range e.graph.Nodes() {
		if err := graph.CycleCheck(n); err != nil {
			metrics.CycleChecks.WithLabelValues("cycle").Inc()
			return err
		}
	}
	metrics.CycleChecks.WithLabelValues("ok").Inc()
	return nil
}

// NodeCount returns the size of the active graph.
func (e *Engine) NodeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.NodeCount()
}

// QueueUtilization returns queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.pool.QueueCap() == 0 {
		return 0
	}
	return float64(e.pool.QueueLen()) / float64(e.pool.QueueCap())
}

// Shutdown drains the write pool gracefully.
func (e *Engine) Shutdown() {
	e.pool.Drain()
}

func nodeNames(nodes []graph.AnyNode) []string {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}
