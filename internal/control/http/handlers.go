// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/store"
	"github.com/ManuGH/topod/internal/log"
)

type sessionsResponse struct {
	Sessions []model.SessionInfo `json:"sessions"`
	Count    int                 `json:"count"`
}

type commandsResponse struct {
	Commands []model.CommandRecord `json:"commands"`
	Count    int                   `json:"count"`
}

func (a *api) getVocabulary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, a.vocabulary())
}

func (a *api) listSessions(w http.ResponseWriter, r *http.Request) {
	list := a.registry.Snapshot()
	writeJSON(w, r, http.StatusOK, sessionsResponse{Sessions: list, Count: len(list)})
}

func (a *api) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !model.IsSafeSessionID(id) {
		writeError(w, r, http.StatusBadRequest, "invalid session id")
		return
	}
	s, ok := a.registry.Get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, r, http.StatusOK, s.Info())
}

func (a *api) listCommands(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := store.ListOptions{SessionID: q.Get("session_id")}

	if opts.SessionID != "" && !model.IsSafeSessionID(opts.SessionID) {
		writeError(w, r, http.StatusBadRequest, "invalid session_id")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > store.MaxListLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(store.MaxListLimit))
			return
		}
		opts.Limit = n
	}

	list, err := a.history.List(r.Context(), opts)
	if err != nil {
		a.storeFailure(w, r, err)
		return
	}
	if list == nil {
		list = []model.CommandRecord{}
	}
	writeJSON(w, r, http.StatusOK, commandsResponse{Commands: list, Count: len(list)})
}

func (a *api) lastCommand(w http.ResponseWriter, r *http.Request) {
	rec, err := a.history.Last(r.Context())
	a.writeRecord(w, r, rec, err)
}

func (a *api) getCommand(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, http.StatusBadRequest, "invalid command id")
		return
	}
	rec, err := a.history.Get(r.Context(), id)
	a.writeRecord(w, r, rec, err)
}

func (a *api) writeRecord(w http.ResponseWriter, r *http.Request, rec model.CommandRecord, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "command not found")
	case err != nil:
		a.storeFailure(w, r, err)
	default:
		writeJSON(w, r, http.StatusOK, rec)
	}
}

func (a *api) storeFailure(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Error().Err(err).
		Str(log.FieldEvent, "api.store_failed").
		Msg("command history query failed")
	writeError(w, r, http.StatusInternalServerError, "command history unavailable")
}
