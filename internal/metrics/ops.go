// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_job_runs_total",
		Help: "Total number of scheduled job runs, by job and outcome.",
	}, []string{"job", "outcome"})

	jobRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "topod_job_run_duration_seconds",
		Help:    "Duration of scheduled job runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	jobLastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "topod_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run, by job.",
	}, []string{"job"})

	ConfigReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topod_config_reloads_total",
		Help: "Total number of configuration reloads, by outcome.",
	}, []string{"outcome"}) // outcome=ok|error

	HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "topod_health_check_status",
		Help: "Last result of each health check: 1 healthy, 0.5 degraded, 0 unhealthy.",
	}, []string{"check"})
)

// RecordJobRun records one run of a scheduled job.
func RecordJobRun(job string, started time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	JobRunsTotal.WithLabelValues(job, outcome).Inc()
	jobRunDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
	if err == nil {
		jobLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
	}
}

func RecordConfigReload(err error) {
	if err != nil {
		ConfigReloadsTotal.WithLabelValues(OutcomeError).Inc()
		return
	}
	ConfigReloadsTotal.WithLabelValues(OutcomeOK).Inc()
}

// RecordHealthCheck stores the score of the latest run of a health check.
func RecordHealthCheck(check string, score float64) {
	HealthCheckStatus.WithLabelValues(check).Set(score)
}
