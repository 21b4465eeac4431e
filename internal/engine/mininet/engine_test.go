// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package mininet

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
)

// fakeCLI mimics the parts of `mn` the engine relies on.
const fakeCLI = `#!/bin/sh
dir=$(dirname "$0")
if [ "$1" = "-c" ]; then
	echo cleaned >> "$dir/cleaned"
	exit 0
fi
echo "$*" > "$dir/args"
echo "*** Creating network"
printf 'mininet> '
while IFS= read -r line; do
	case "$line" in
	exit) echo "*** Stopping"; exit 0 ;;
	hang) sleep 1 ;;
	*) echo "ran: $line" ;;
	esac
	printf 'mininet> '
done
`

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "mn")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func newEngine(t *testing.T, body string, mutate func(*Config)) (*Engine, string) {
	t.Helper()
	bin := writeScript(t, body)
	cfg := Config{
		Binary:      bin,
		WorkDir:     t.TempDir(),
		StopGrace:   time.Second,
		KillTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown(context.Background()) })
	return e, filepath.Dir(bin)
}

var starSpec = ports.CreateSpec{SessionID: "s1", NodeCount: 2, Kind: model.KindStar, Mode: model.ModeFull}

func ctxTimeout(t *testing.T, d time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)
	return ctx
}

func TestLifecycle(t *testing.T) {
	e, binDir := newEngine(t, fakeCLI, nil)

	inst, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inst.Handle.String(), HandlePrefix))
	assert.Equal(t, []string{"h1", "h2"}, inst.Hosts)
	assert.Equal(t, []string{"s1"}, inst.Switches)
	assert.Equal(t, 1, e.Live())

	args, err := os.ReadFile(filepath.Join(binDir, "args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "--topo topod")
	assert.Contains(t, string(args), "--controller remote,ip=127.0.0.1,port=6633")

	scripts, err := filepath.Glob(filepath.Join(e.cfg.WorkDir, "topod-*.py"))
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	body, err := os.ReadFile(scripts[0])
	require.NoError(t, err)
	assert.Contains(t, string(body), "topos = {'topod'")

	res, err := e.Exec(ctxTimeout(t, 5*time.Second), inst.Handle, "pingall")
	require.NoError(t, err)
	assert.Equal(t, "ran: pingall\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)

	require.NoError(t, e.Destroy(ctxTimeout(t, 5*time.Second), inst.Handle))
	require.NoError(t, e.Destroy(context.Background(), inst.Handle), "destroy is idempotent")
	assert.Equal(t, 0, e.Live())
	assert.NoFileExists(t, scripts[0])

	_, err = e.Exec(context.Background(), inst.Handle, "pingall")
	assert.Error(t, err)
}

func TestCleanupBeforeCreate(t *testing.T) {
	e, binDir := newEngine(t, fakeCLI, func(c *Config) { c.Cleanup = true })

	_, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(binDir, "cleaned"))
}

func TestCleanup_SkippedWhileTopologiesLive(t *testing.T) {
	e, binDir := newEngine(t, fakeCLI, func(c *Config) { c.Cleanup = true })
	cleanups := func() int {
		b, err := os.ReadFile(filepath.Join(binDir, "cleaned"))
		require.NoError(t, err)
		return strings.Count(string(b), "cleaned\n")
	}

	first, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)
	second, err := e.Create(ctxTimeout(t, 5*time.Second), ports.CreateSpec{SessionID: "s2", NodeCount: 3, Kind: model.KindRing, Mode: model.ModeFull})
	require.NoError(t, err)
	assert.Equal(t, 1, cleanups(), "second create must not clean up the first topology")
	assert.Equal(t, 2, e.Live())

	res, err := e.Exec(ctxTimeout(t, 5*time.Second), first.Handle, "nodes")
	require.NoError(t, err)
	assert.Equal(t, "ran: nodes\n", res.Stdout)

	require.NoError(t, e.Destroy(ctxTimeout(t, 5*time.Second), first.Handle))
	require.NoError(t, e.Destroy(ctxTimeout(t, 5*time.Second), second.Handle))

	_, err = e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)
	assert.Equal(t, 2, cleanups(), "cleanup runs again once the engine is empty")
}

func TestExec_AllowList(t *testing.T) {
	e, _ := newEngine(t, fakeCLI, func(c *Config) { c.AllowedCommands = []string{"pingall", "h1"} })
	inst, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)

	res, err := e.Exec(ctxTimeout(t, 5*time.Second), inst.Handle, "sh rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, ExitNotAllowed, res.ExitCode)
	assert.Contains(t, res.Stderr, "not allowed")

	res, err = e.Exec(ctxTimeout(t, 5*time.Second), inst.Handle, "h1 ping h2")
	require.NoError(t, err)
	assert.Equal(t, "ran: h1 ping h2\n", res.Stdout)

	res, err = e.Exec(ctxTimeout(t, 5*time.Second), inst.Handle, "pingall\nexit")
	require.NoError(t, err)
	assert.Equal(t, ExitMultiline, res.ExitCode)
}

func TestExec_TimeoutThenResync(t *testing.T) {
	e, _ := newEngine(t, fakeCLI, nil)
	inst, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)

	_, err = e.Exec(ctxTimeout(t, 100*time.Millisecond), inst.Handle, "hang")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := e.Exec(ctxTimeout(t, 5*time.Second), inst.Handle, "nodes")
	require.NoError(t, err)
	assert.Equal(t, "ran: nodes\n", res.Stdout)
}

func TestCreate_CLIFailsToStart(t *testing.T) {
	e, _ := newEngine(t, "#!/bin/sh\necho 'Error creating interface' >&2\nexit 1\n", nil)

	_, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.ErrorIs(t, err, ErrCLIExited)
	assert.Equal(t, 0, e.Live())

	scripts, _ := filepath.Glob(filepath.Join(e.cfg.WorkDir, "topod-*.py"))
	assert.Empty(t, scripts)
}

func TestCreate_CanceledWhileBooting(t *testing.T) {
	e, _ := newEngine(t, "#!/bin/sh\nexec sleep 30\n", func(c *Config) { c.StopGrace = 200 * time.Millisecond })

	start := time.Now()
	_, err := e.Create(ctxTimeout(t, 100*time.Millisecond), starSpec)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 0, e.Live())
}

func TestDestroy_KillsStubbornCLI(t *testing.T) {
	stubborn := "#!/bin/sh\nprintf 'mininet> '\nwhile IFS= read -r line; do printf 'mininet> '; done\nexec sleep 30\n"
	e, _ := newEngine(t, stubborn, func(c *Config) { c.StopGrace = 100 * time.Millisecond })

	inst, err := e.Create(ctxTimeout(t, 5*time.Second), starSpec)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, e.Destroy(ctxTimeout(t, 5*time.Second), inst.Handle))
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, 0, e.Live())
}

func TestNew_RejectsBadControllerAddr(t *testing.T) {
	_, err := New(Config{ControllerAddr: "nope", WorkDir: t.TempDir()})
	assert.Error(t, err)
}
