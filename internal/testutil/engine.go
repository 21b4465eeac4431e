// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
)

// FakeEngine is a scriptable ports.TopologyEngine that records every call.
// Hooks run with the call's context; nil hooks succeed immediately.
type FakeEngine struct {
	CreateFunc  func(ctx context.Context, spec ports.CreateSpec) (ports.Instance, error)
	DestroyFunc func(ctx context.Context, h ports.Handle) error
	ExecFunc    func(ctx context.Context, h ports.Handle, cmd string) (ports.ExecResult, error)

	mu       sync.Mutex
	seq      int
	creates  []ports.CreateSpec
	destroys []ports.Handle
	execs    []string
	live     map[ports.Handle]bool
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{live: map[ports.Handle]bool{}}
}

func (f *FakeEngine) Create(ctx context.Context, spec ports.CreateSpec) (ports.Instance, error) {
	f.mu.Lock()
	f.creates = append(f.creates, spec)
	f.seq++
	h := ports.Handle(fmt.Sprintf("fake-%d", f.seq))
	hook := f.CreateFunc
	f.mu.Unlock()

	inst := ports.Instance{Handle: h, Hosts: []string{"h1"}, Switches: []string{"s1"}, Links: []model.Link{{A: "h1", B: "s1"}}}
	if hook != nil {
		got, err := hook(ctx, spec)
		if err != nil {
			return got, err
		}
		if got.Handle != "" {
			inst = got
		}
	}

	f.mu.Lock()
	f.live[inst.Handle] = true
	f.mu.Unlock()
	return inst, nil
}

func (f *FakeEngine) Destroy(ctx context.Context, h ports.Handle) error {
	f.mu.Lock()
	f.destroys = append(f.destroys, h)
	hook := f.DestroyFunc
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, h); err != nil {
			return err
		}
	}
	f.mu.Lock()
	delete(f.live, h)
	f.mu.Unlock()
	return nil
}

func (f *FakeEngine) Exec(ctx context.Context, h ports.Handle, cmd string) (ports.ExecResult, error) {
	f.mu.Lock()
	f.execs = append(f.execs, cmd)
	hook := f.ExecFunc
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, h, cmd)
	}
	return ports.ExecResult{Stdout: "ok: " + cmd}, nil
}

func (f *FakeEngine) Creates() []ports.CreateSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.CreateSpec(nil), f.creates...)
}

func (f *FakeEngine) Destroys() []ports.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ports.Handle(nil), f.destroys...)
}

func (f *FakeEngine) Execs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.execs...)
}

// Live reports handles created and not yet destroyed.
func (f *FakeEngine) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

var _ ports.TopologyEngine = (*FakeEngine)(nil)
