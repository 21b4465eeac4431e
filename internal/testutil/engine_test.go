// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/domain/session/ports"
)

func TestFakeEngine_ManyCreatesNeverBlock(t *testing.T) {
	f := NewFakeEngine()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_, err := f.Create(context.Background(), ports.CreateSpec{SessionID: "s", NodeCount: 1})
			if err != nil {
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("creates stalled")
	}
	assert.Len(t, f.Creates(), 500)
	assert.Equal(t, 500, f.Live())
}

func TestFakeEngine_TracksLiveHandles(t *testing.T) {
	f := NewFakeEngine()
	inst, err := f.Create(context.Background(), ports.CreateSpec{SessionID: "s", NodeCount: 2})
	require.NoError(t, err)
	assert.Equal(t, ports.Handle("fake-1"), inst.Handle)
	assert.Equal(t, 1, f.Live())

	f.DestroyFunc = func(context.Context, ports.Handle) error { return errors.New("busy") }
	require.Error(t, f.Destroy(context.Background(), inst.Handle))
	assert.Equal(t, 1, f.Live(), "failed destroy keeps the handle live")

	f.DestroyFunc = nil
	require.NoError(t, f.Destroy(context.Background(), inst.Handle))
	assert.Equal(t, 0, f.Live())
	assert.Equal(t, []ports.Handle{inst.Handle, inst.Handle}, f.Destroys())
}
