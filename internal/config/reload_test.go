// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data_dir: \""+dir+"\"\nsession:\n  max_nodes: 16\n")

	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	updates := make(chan AppConfig, 1)
	h.RegisterListener(updates)

	require.NoError(t, os.WriteFile(path, []byte("data_dir: \""+dir+"\"\nsession:\n  max_nodes: 24\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, uint(24), h.Get().Session.MaxNodes)

	select {
	case got := <-updates:
		assert.Equal(t, uint(24), got.Session.MaxNodes)
	default:
		t.Fatal("listener was not notified")
	}

	// An invalid file keeps the previous config.
	require.NoError(t, os.WriteFile(path, []byte("data_dir: \""+dir+"\"\nsession:\n  max_nodes: 0\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, uint(24), h.Get().Session.MaxNodes)
}

func TestConfigHolder_WatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "data_dir: \""+dir+"\"\n")

	loader := NewLoader(path, "")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewConfigHolder(initial, loader)
	updates := make(chan AppConfig, 4)
	h.RegisterListener(updates)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("data_dir: \""+dir+"\"\nsession:\n  exec_timeout: 3s\n"), 0o600))

	select {
	case got := <-updates:
		assert.Equal(t, 3*time.Second, got.Session.ExecTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
}

func TestConfigHolder_NoPathNoWatcher(t *testing.T) {
	h := NewConfigHolder(Defaults(), NewLoader("", ""))
	require.NoError(t, h.StartWatcher(context.Background()))
	assert.Nil(t, h.watcher)
}
