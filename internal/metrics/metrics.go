// Package metrics provides Prometheus collectors for the charette server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CharettesCreated counts charette sessions created since startup.
	CharettesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "charette",
			Name:      "sessions_created_total",
			Help:      "Total number of charette sessions created",
		},
	)

	// MessagesPosted counts stored messages.
	// Labels: room (main, breakout)
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "charette",
			Name:      "messages_posted_total",
			Help:      "Total number of messages appended to room logs",
		},
		[]string{"room"},
	)

	// PhaseTransitions counts phase moves, including clamped no-ops.
	// Labels: action (next, previous, invalid)
	PhaseTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "charette",
			Name:      "phase_transitions_total",
			Help:      "Total number of phase transition requests",
		},
		[]string{"action"},
	)

	// LiveConnections tracks currently open websocket connections.
	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "charette",
			Name:      "live_connections",
			Help:      "Number of open live websocket connections",
		},
	)

	// ReportsAssembled counts report projections built.
	ReportsAssembled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "charette",
			Name:      "reports_assembled_total",
			Help:      "Total number of session reports assembled",
		},
	)
)
