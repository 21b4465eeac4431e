// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProcSignalsTotal counts signals sent to engine process groups.
	ProcSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_engine_process_signals_total",
		Help: "Signals sent to engine process groups, by signal and result (sent, esrch, error).",
	}, []string{"signal", "result"})

	// ProcExitsTotal counts how engine processes ended.
	ProcExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_engine_process_exits_total",
		Help: "Engine process exits, by reason (exit0, exit_nonzero, forced_exit0, forced_error).",
	}, []string{"reason"})

	// ProcRunning tracks live engine child processes.
	ProcRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "topod_engine_processes_running",
		Help: "Number of engine child processes currently running.",
	})
)

func IncProcSignal(signal, result string) {
	ProcSignalsTotal.WithLabelValues(signal, result).Inc()
}

func IncProcExit(reason string) {
	ProcExitsTotal.WithLabelValues(reason).Inc()
}
