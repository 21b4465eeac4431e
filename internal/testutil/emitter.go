// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
)

// RecordingEmitter captures emitted events in order.
type RecordingEmitter struct {
	mu     sync.Mutex
	events []model.Event
	ch     chan model.Event
}

func NewRecordingEmitter() *RecordingEmitter {
	return &RecordingEmitter{ch: make(chan model.Event, 256)}
}

func (r *RecordingEmitter) Emit(_ context.Context, ev model.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
	return nil
}

func (r *RecordingEmitter) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

// Next waits for the next event or fails the test after timeout.
func (r *RecordingEmitter) Next(t *testing.T, timeout time.Duration) model.Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("no event within %s", timeout)
		return model.Event{}
	}
}

var _ ports.EventEmitter = (*RecordingEmitter)(nil)

// RecordingNotifier captures controller notifications.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []ports.ControllerEvent
}

func (r *RecordingNotifier) Notify(_ context.Context, ev ports.ControllerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *RecordingNotifier) Events() []ports.ControllerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.ControllerEvent(nil), r.events...)
}
