package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Simulation metrics, exposed on /metrics.
var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cuetable_active_sessions",
		Help: "Number of live table sessions.",
	})

	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuetable_sessions_created_total",
		Help: "Total table sessions created.",
	})

	ShotsTaken = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuetable_shots_total",
		Help: "Total shots released.",
	})

	BallsPocketed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuetable_balls_pocketed_total",
		Help: "Total object balls sunk.",
	})

	TableResets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuetable_table_resets_total",
		Help: "Total full table resets from cue-ball scratches.",
	})

	TicksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuetable_ticks_total",
		Help: "Total simulation ticks processed across all sessions.",
	})

	InputsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuetable_ws_inputs_dropped_total",
		Help: "Pointer events dropped by the per-client rate limiter.",
	})
)
