// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/control/middleware"
	"github.com/ManuGH/topod/internal/domain/session/manager"
	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/store"
	"github.com/ManuGH/topod/internal/health"
	"github.com/ManuGH/topod/internal/testutil"
)

type fixture struct {
	router  http.Handler
	mgr     *manager.Manager
	history *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	history := store.NewMemoryStore()
	mgr, err := manager.New(manager.NewRegistry(), manager.Deps{
		Engine:  testutil.NewFakeEngine(),
		History: history,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mgr.Shutdown(ctx)
	})

	return &fixture{
		router: NewRouter(Deps{
			Registry: mgr.Registry(),
			History:  history,
			Health:   health.NewManager("test"),
			Stack:    middleware.StackConfig{EnableSecurityHeaders: true},
		}),
		mgr:     mgr,
		history: history,
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func (f *fixture) seed(t *testing.T, sessionID string, kinds ...string) {
	t.Helper()
	for _, k := range kinds {
		_, err := f.history.Append(context.Background(), model.CommandRecord{
			SessionID: sessionID,
			Kind:      k,
			Raw:       k,
			Status:    model.CommandSucceeded,
		})
		require.NoError(t, err)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := f.get(t, path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestVocabulary(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/api/v1/vocabulary")
	require.Equal(t, http.StatusOK, rr.Code)

	v := decode[model.Vocabulary](t, rr)
	assert.ElementsMatch(t, model.BuiltinKinds(), v.Kinds)
	assert.ElementsMatch(t, model.BuiltinModes(), v.Modes)
}

func TestSessions(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/api/v1/sessions")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[sessionsResponse](t, rr).Count)

	sess, err := f.mgr.Open(context.Background(), testutil.NewRecordingEmitter(), "10.0.0.7:5000")
	require.NoError(t, err)

	rr = f.get(t, "/api/v1/sessions")
	list := decode[sessionsResponse](t, rr)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, sess.ID(), list.Sessions[0].ID)

	rr = f.get(t, "/api/v1/sessions/"+sess.ID())
	require.Equal(t, http.StatusOK, rr.Code)
	info := decode[model.SessionInfo](t, rr)
	assert.Equal(t, sess.ID(), info.ID)
	assert.Equal(t, "10.0.0.7:5000", info.Remote)
}

func TestSessionNotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.get(t, "/api/v1/sessions/missing")
	require.Equal(t, http.StatusNotFound, rr.Code)
	body := decode[ErrorResponse](t, rr)
	assert.Equal(t, "session not found", body.Error)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, rr.Header().Get(middleware.HeaderRequestID), body.RequestID)

	rr = f.get(t, "/api/v1/sessions/bad.id")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCommands(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "s1", "start", "exec")
	f.seed(t, "s2", "stop")

	rr := f.get(t, "/api/v1/commands")
	require.Equal(t, http.StatusOK, rr.Code)
	all := decode[commandsResponse](t, rr)
	require.Equal(t, 3, all.Count)
	assert.Equal(t, "stop", all.Commands[0].Kind, "newest first")

	rr = f.get(t, "/api/v1/commands?session_id=s1&limit=1")
	require.Equal(t, http.StatusOK, rr.Code)
	one := decode[commandsResponse](t, rr)
	require.Equal(t, 1, one.Count)
	assert.Equal(t, "exec", one.Commands[0].Kind)

	rr = f.get(t, "/api/v1/commands/last")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "s2", decode[model.CommandRecord](t, rr).SessionID)

	rr = f.get(t, "/api/v1/commands/1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "start", decode[model.CommandRecord](t, rr).Kind)
}

func TestCommandsEmptyList(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/api/v1/commands")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"commands":[],"count":0}`, rr.Body.String())
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		path string
		code int
	}{
		{"/api/v1/commands/last", http.StatusNotFound},
		{"/api/v1/commands/42", http.StatusNotFound},
		{"/api/v1/commands/abc", http.StatusBadRequest},
		{"/api/v1/commands/0", http.StatusBadRequest},
		{"/api/v1/commands?limit=0", http.StatusBadRequest},
		{"/api/v1/commands?limit=x", http.StatusBadRequest},
		{"/api/v1/commands?limit=100000", http.StatusBadRequest},
		{"/api/v1/commands?session_id=a%20b", http.StatusBadRequest},
		{"/api/v1/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rr := f.get(t, tc.path)
			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAPIRateLimit(t *testing.T) {
	r := NewRouter(Deps{
		Registry:             manager.NewRegistry(),
		History:              store.NewMemoryStore(),
		APIRequestsPerMinute: 1,
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/vocabulary", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/vocabulary", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Probes are outside the limited group.
	probe := httptest.NewRecorder()
	r.ServeHTTP(probe, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, probe.Code)
}
