package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Colony and query metrics. promauto registers everything on the
// default registry; the serve command exposes it on /metrics.

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phago_ticks_total",
		Help: "Total simulation ticks executed",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phago_tick_duration_seconds",
		Help:    "Wall-clock duration of one tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	AgentsAlive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phago_agents_alive",
		Help: "Current live agent count",
	})

	AgentsSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phago_agents_spawned_total",
		Help: "Total agents spawned",
	})

	AgentsDied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phago_agents_died_total",
		Help: "Total agents removed by apoptosis",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phago_graph_nodes",
		Help: "Current concept node count",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phago_graph_edges",
		Help: "Current edge count",
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phago_query_duration_seconds",
		Help:    "Duration of hybrid and structural queries",
		Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
		[]string{"kind"},
	)

	SnapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phago_snapshots_total",
		Help: "Snapshot save/load operations by outcome",
	},
		[]string{"op", "outcome"},
	)
)
