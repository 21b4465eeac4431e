// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// MemoryStore is an in-memory CommandStore intended for tests and local iteration.
// Not durable.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []model.CommandRecord // ascending id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Append(_ context.Context, rec model.CommandRecord) (int64, error) {
	rec = stamp(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, rec)
	return rec.ID, nil
}

func (m *MemoryStore) Complete(_ context.Context, id int64, status model.CommandStatus, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	m.records[i].Status = status
	m.records[i].Detail = detail
	m.records[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) indexOf(id int64) int {
	lo, hi := 0, len(m.records)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case m.records[mid].ID == id:
			return mid
		case m.records[mid].ID < id:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

func (m *MemoryStore) Get(_ context.Context, id int64) (model.CommandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return model.CommandRecord{}, ErrNotFound
	}
	return m.records[i], nil
}

func (m *MemoryStore) Last(_ context.Context) (model.CommandRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return model.CommandRecord{}, ErrNotFound
	}
	return m.records[len(m.records)-1], nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]model.CommandRecord, error) {
	limit := opts.limit()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.CommandRecord, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if opts.SessionID != "" && m.records[i].SessionID != opts.SessionID {
			continue
		}
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	var removed int64
	for _, r := range m.records {
		if r.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return removed, nil
}
