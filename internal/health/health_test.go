// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/metrics"
)

type stubChecker struct {
	name   string
	status Status
	msg    string
}

func (s stubChecker) Name() string { return s.name }

func (s stubChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: s.status, Message: s.msg}
}

// blockingChecker ignores its work and waits for the deadline.
type blockingChecker struct{ name string }

func (b blockingChecker) Name() string { return b.name }

func (b blockingChecker) Check(ctx context.Context) CheckResult {
	<-ctx.Done()
	return CheckResult{Status: StatusHealthy}
}

func TestHealth_LivenessIgnoresChecksUnlessVerbose(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(stubChecker{name: "store", status: StatusUnhealthy})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusUnhealthy, resp.Status)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, StatusUnhealthy, resp.Checks["store"].Status)
}

func TestHealth_UptimeUsesClock(t *testing.T) {
	m := NewManager("v1.0.0")
	m.now = func() time.Time { return m.started.Add(90 * time.Second) }

	resp := m.Health(context.Background(), false)
	assert.Equal(t, int64(90), resp.Uptime)
	assert.Equal(t, m.started.Add(90*time.Second), resp.Timestamp)
}

func TestReady_OverallStatus(t *testing.T) {
	cases := []struct {
		name      string
		checks    []Status
		wantReady bool
		want      Status
	}{
		{name: "no checkers", wantReady: true, want: StatusHealthy},
		{name: "all healthy", checks: []Status{StatusHealthy, StatusHealthy}, wantReady: true, want: StatusHealthy},
		{name: "degraded stays ready", checks: []Status{StatusHealthy, StatusDegraded}, wantReady: true, want: StatusDegraded},
		{name: "unhealthy wins", checks: []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, wantReady: false, want: StatusUnhealthy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager("test")
			for i, st := range tc.checks {
				m.RegisterChecker(stubChecker{name: string(rune('a' + i)), status: st})
			}
			resp := m.Ready(context.Background(), true)
			assert.Equal(t, tc.wantReady, resp.Ready)
			assert.Equal(t, tc.want, resp.Status)
			assert.Len(t, resp.Checks, len(tc.checks))
		})
	}
}

func TestReady_NonVerboseListsOnlyFailingChecks(t *testing.T) {
	m := NewManager("test")
	m.RegisterChecker(stubChecker{name: "store", status: StatusHealthy})
	m.RegisterChecker(stubChecker{name: "retention", status: StatusDegraded, msg: "stale"})

	resp := m.Ready(context.Background(), false)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "stale", resp.Checks["retention"].Message)

	m2 := NewManager("test")
	m2.RegisterChecker(stubChecker{name: "store", status: StatusHealthy})
	assert.Nil(t, m2.Ready(context.Background(), false).Checks)
}

func TestReady_SlowCheckTimesOut(t *testing.T) {
	m := NewManager("test")
	m.SetCheckTimeout(20 * time.Millisecond)
	m.SetCheckTimeout(0) // ignored
	m.RegisterChecker(blockingChecker{name: "slow"})
	m.RegisterChecker(stubChecker{name: "fast", status: StatusHealthy})

	start := time.Now()
	resp := m.Ready(context.Background(), true)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, resp.Ready)
	assert.Equal(t, "check timed out", resp.Checks["slow"].Error)
	assert.Equal(t, StatusHealthy, resp.Checks["fast"].Status)
}

func TestReady_RecordsCheckGauge(t *testing.T) {
	m := NewManager("test")
	m.RegisterChecker(stubChecker{name: "gauge_probe", status: StatusDegraded})
	m.Ready(context.Background(), false)
	assert.Equal(t, 0.5, metrics.GaugeValue(metrics.HealthCheckStatus.WithLabelValues("gauge_probe")))
}

func TestServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(stubChecker{name: "store", status: StatusDegraded})

	rr := httptest.NewRecorder()
	m.ServeHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	rr = httptest.NewRecorder()
	m.ServeHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "liveness is 200 even when degraded")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestServeReady(t *testing.T) {
	for _, tc := range []struct {
		status Status
		code   int
	}{
		{StatusHealthy, http.StatusOK},
		{StatusDegraded, http.StatusOK},
		{StatusUnhealthy, http.StatusServiceUnavailable},
	} {
		t.Run(string(tc.status), func(t *testing.T) {
			m := NewManager("v1.0.0")
			m.RegisterChecker(stubChecker{name: "engine", status: tc.status})

			rr := httptest.NewRecorder()
			m.ServeReady(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tc.code, rr.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tc.code == http.StatusOK, resp.Ready)
		})
	}
}

type brokenWriter struct{ header http.Header }

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, assert.AnError }
func (w *brokenWriter) WriteHeader(int)           {}

func TestServe_EncodingErrorDoesNotPanic(t *testing.T) {
	m := NewManager("v1.0.0")
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	assert.NotPanics(t, func() {
		m.ServeHealth(&brokenWriter{header: make(http.Header)}, req)
		m.ServeReady(&brokenWriter{header: make(http.Header)}, req)
	})
}
