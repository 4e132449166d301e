package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WritesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcgraph_writes_enqueued_total",
		Help: "Total number of value writes placed on the write queue.",
	})

	WritesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcgraph_writes_dropped_total",
		Help: "Total number of value writes rejected due to a full queue.",
	})

	WritesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcgraph_writes_applied_total",
		Help: "Total number of writes that changed a node's value.",
	})

	WritesNoop = promauto.NewCounter(prometheus.CounterOpts{
		Name: "calcgraph_writes_noop_total",
		Help: "Total number of writes short-circuited because the value was unchanged.",
	})

	NodeUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcgraph_node_updates_total",
		Help: "Total number of node value changes, labelled by node name.",
	}, []string{"node"})

	Reads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcgraph_reads_total",
		Help: "Total number of node reads, labelled by outcome.",
	}, []string{"result"})

	ReadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "calcgraph_read_duration_ms",
		Help:    "Read latency including lazy recomputation, in milliseconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
	})

	SourceEmits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcgraph_source_emits_total",
		Help: "Total number of emissions into observer source hooks, labelled by source.",
	}, []string{"source"})

	CycleChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calcgraph_cycle_checks_total",
		Help: "Total number of cycle-check runs, labelled by outcome.",
	}, []string{"result"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calcgraph_queue_utilization_ratio",
		Help: "Current write queue utilization (0–1).",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calcgraph_graph_nodes",
		Help: "Number of nodes in the active graph.",
	})
)
