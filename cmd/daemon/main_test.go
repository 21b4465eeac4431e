// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/topod/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigCLI_Validate(t *testing.T) {
	dir := t.TempDir()
	good := writeConfig(t, "data_dir: "+dir+"\nlog_level: debug\n")
	bad := writeConfig(t, "data_dir: "+dir+"\nbogus_field: 1\n")

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, configCLI([]string{"validate", "-f", good}, &out, &errOut))
	assert.Contains(t, out.String(), "configuration is valid")

	out.Reset()
	errOut.Reset()
	assert.Equal(t, 1, configCLI([]string{"validate", "-f", bad}, &out, &errOut))
	assert.Contains(t, errOut.String(), "invalid configuration")
}

func TestConfigCLI_DumpRedactsSecrets(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `data_dir: `+dir+`
notify:
  sinks: [http, redis]
  http:
    url: http://127.0.0.1:9/hook
    token: s3cret
  redis:
    addr: 127.0.0.1:6379
    password: hunter2
`)

	var out, errOut bytes.Buffer
	require.Equal(t, 0, configCLI([]string{"dump", "-f", path}, &out, &errOut), errOut.String())
	assert.NotContains(t, out.String(), "s3cret")
	assert.NotContains(t, out.String(), "hunter2")

	var dumped config.AppConfig
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &dumped))
	assert.Equal(t, redacted, dumped.Notify.HTTP.Token)
	assert.Equal(t, redacted, dumped.Notify.Redis.Password)
	assert.Equal(t, dir, dumped.DataDir)
}

func TestConfigCLI_UnknownSubcommand(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, configCLI([]string{"frobnicate"}, &out, &errOut))
	assert.Contains(t, errOut.String(), "unknown subcommand")

	errOut.Reset()
	assert.Equal(t, 0, configCLI(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage:")
}

func TestHealthcheck(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/healthz":
			w.WriteHeader(http.StatusOK)
		case "/readyz":
			if ready.Load() {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var out, errOut bytes.Buffer
	assert.Equal(t, 0, healthcheck([]string{"-url", srv.URL}, &out, &errOut))
	assert.Contains(t, out.String(), "healthcheck successful (ready)")

	ready.Store(false)
	errOut.Reset()
	assert.Equal(t, 1, healthcheck([]string{"-url", srv.URL}, &out, &errOut))
	assert.Contains(t, errOut.String(), "503")

	assert.Equal(t, 0, healthcheck([]string{"-url", srv.URL, "-mode", "live"}, &out, &errOut))
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TOPOD_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("TOPOD_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("TOPOD_TEST_DOTENV"))
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "loaded", os.Getenv("TOPOD_TEST_DOTENV"))
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("TOPOD_CONFIG", "/etc/topod/env.yaml")
	assert.Equal(t, "/etc/topod/flag.yaml", resolveConfigPath("/etc/topod/flag.yaml"))
	assert.Equal(t, "/etc/topod/env.yaml", resolveConfigPath(""))
}
