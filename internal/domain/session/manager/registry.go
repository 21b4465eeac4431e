// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/metrics"
)

var (
	ErrRegistryClosed   = errors.New("session registry closed")
	ErrDuplicateSession = errors.New("session id already registered")
)

// Registry maps session ids to live sessions. The mutex only guards map
// insert/remove; session work never runs under it.
type Registry struct {
	mu       sync.RWMutex
	closing  bool
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Insert(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closing {
		return ErrRegistryClosed
	}
	if _, exists := r.sessions[s.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSession, s.id)
	}
	r.sessions[s.id] = s
	metrics.RecordSessionOpened()
	return nil
}

// Remove drops id and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		metrics.RecordSessionClosed()
	}
	return ok
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Closing reports whether CloseAll has started.
func (r *Registry) Closing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closing
}

// Snapshot returns session infos ordered by creation time.
func (r *Registry) Snapshot() []model.SessionInfo {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	out := make([]model.SessionInfo, 0, len(list))
	for _, s := range list {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CloseAll refuses further inserts and closes every session concurrently.
// Each session bounds its own teardown; ctx bounds the overall wait.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	r.closing = true
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range list {
		s := s
		g.Go(func() error {
			err := s.Close(gctx)
			r.Remove(s.id)
			return err
		})
	}
	return g.Wait()
}
