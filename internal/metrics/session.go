// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides Prometheus metrics for the topod session controller.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// No session_id or handle labels: cardinality must stay bounded.

var (
	// Counters

	// SessionsOpenedTotal counts accepted WebSocket sessions.
	SessionsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topod_sessions_opened_total",
		Help: "Total number of sessions opened.",
	})

	// CommandsTotal counts processed frames by command kind and outcome.
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_commands_total",
		Help: "Total number of inbound frames processed, by command and outcome.",
	}, []string{"command", "outcome"})

	// TransitionsTotal counts session state changes.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_session_transitions_total",
		Help: "Total number of session state transitions, by source and target state.",
	}, []string{"from", "to"})

	// TeardownLeaksTotal counts topology handles abandoned after the teardown timeout.
	TeardownLeaksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topod_teardown_leaks_total",
		Help: "Total number of topology handles abandoned because teardown timed out.",
	})

	// NotificationsTotal counts controller notifications by sink and outcome.
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_controller_notifications_total",
		Help: "Total number of controller notifications, by sink and outcome.",
	}, []string{"sink", "outcome"})

	// HistoryPrunedTotal counts command history records removed by retention.
	HistoryPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "topod_command_history_pruned_total",
		Help: "Total number of command history records removed by retention.",
	})

	// WSFramesTotal counts WebSocket frames by direction.
	WSFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_ws_frames_total",
		Help: "Total number of WebSocket frames, by direction (in/out).",
	}, []string{"direction"})

	// Gauges

	// SessionsActive tracks currently registered sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "topod_sessions_active",
		Help: "Current number of registered sessions.",
	})

	// TopologiesRunning tracks sessions currently holding a topology handle.
	TopologiesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "topod_topologies_running",
		Help: "Current number of live topologies.",
	})

	// Histograms

	// EngineCallDuration measures Topology Engine calls.
	EngineCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "topod_engine_call_duration_seconds",
		Help:    "Duration of topology engine calls, by operation and outcome.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"op", "outcome"})
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeTimeout  = "timeout"
)

func RecordSessionOpened() {
	SessionsOpenedTotal.Inc()
	SessionsActive.Inc()
}

func RecordSessionClosed() { SessionsActive.Dec() }

// RecordCommand increments the command counter.
func RecordCommand(command, outcome string) {
	CommandsTotal.WithLabelValues(command, outcome).Inc()
}

// RecordTransition counts a state change and keeps the running-topology gauge in step.
func RecordTransition(from, to string, fromHolds, toHolds bool) {
	TransitionsTotal.WithLabelValues(from, to).Inc()
	switch {
	case !fromHolds && toHolds:
		TopologiesRunning.Inc()
	case fromHolds && !toHolds:
		TopologiesRunning.Dec()
	}
}

// ObserveEngineCall records the latency of an engine operation.
func ObserveEngineCall(op, outcome string, d time.Duration) {
	EngineCallDuration.WithLabelValues(op, outcome).Observe(d.Seconds())
}

func RecordTeardownLeak() { TeardownLeaksTotal.Inc() }

func RecordNotification(sink, outcome string) {
	NotificationsTotal.WithLabelValues(sink, outcome).Inc()
}

func RecordHistoryPruned(n int64) { HistoryPrunedTotal.Add(float64(n)) }

func RecordWSFrame(direction string) { WSFramesTotal.WithLabelValues(direction).Inc() }

// CounterValue reads a counter's current value (for tests and diagnostics).
func CounterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// GaugeValue reads a gauge's current value (for tests and diagnostics).
func GaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
