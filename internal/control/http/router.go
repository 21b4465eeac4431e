// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package http exposes the read-only operations API, probes, metrics and the
// WebSocket endpoint on one chi router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/topod/internal/control/middleware"
	"github.com/ManuGH/topod/internal/domain/session/manager"
	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/store"
	"github.com/ManuGH/topod/internal/health"
)

// Deps wires the router to the running daemon.
type Deps struct {
	Registry   *manager.Registry
	History    store.CommandStore
	Health     *health.Manager
	WebSocket  http.Handler
	Vocabulary func() model.Vocabulary

	Stack middleware.StackConfig
	// APIRequestsPerMinute limits /api per client IP; zero disables it.
	APIRequestsPerMinute int
}

type api struct {
	registry   *manager.Registry
	history    store.CommandStore
	vocabulary func() model.Vocabulary
}

// NewRouter builds the full HTTP surface.
func NewRouter(d Deps) http.Handler {
	r := middleware.NewRouter(d.Stack)

	if d.Health != nil {
		r.Get("/healthz", d.Health.ServeHealth)
		r.Get("/readyz", d.Health.ServeReady)
	}
	r.Handle("/metrics", promhttp.Handler())
	if d.WebSocket != nil {
		r.Handle("/ws", d.WebSocket)
	}

	vocab := d.Vocabulary
	if vocab == nil {
		vocab = model.DefaultVocabulary
	}
	a := &api{registry: d.Registry, history: d.History, vocabulary: vocab}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.APIRateLimit(d.APIRequestsPerMinute))

		r.Get("/vocabulary", a.getVocabulary)
		r.Get("/sessions", a.listSessions)
		r.Get("/sessions/{id}", a.getSession)
		r.Get("/commands", a.listCommands)
		r.Get("/commands/last", a.lastCommand)
		r.Get("/commands/{id}", a.getCommand)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
