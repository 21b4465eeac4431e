// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package mininet drives the Mininet CLI as a topology engine. Each topology
// is one `mn` process in its own process group, fed commands over stdin.
package mininet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
	"github.com/ManuGH/topod/internal/procgroup"
	"github.com/ManuGH/topod/internal/topology"
)

// HandlePrefix prefixes every handle issued by this engine.
const HandlePrefix = "mn-"

// Exit codes reported for commands the engine refuses to send.
const (
	ExitNotAllowed = 126
	ExitMultiline  = 2
)

// Config configures the Mininet engine.
type Config struct {
	Binary          string
	WorkDir         string
	ControllerAddr  string
	Cleanup         bool
	AllowedCommands []string
	StopGrace       time.Duration
	KillTimeout     time.Duration
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Binary:         "mn",
		WorkDir:        os.TempDir(),
		ControllerAddr: "127.0.0.1:6633",
		StopGrace:      5 * time.Second,
		KillTimeout:    5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Binary == "" {
		c.Binary = d.Binary
	}
	if c.WorkDir == "" {
		c.WorkDir = d.WorkDir
	}
	if c.ControllerAddr == "" {
		c.ControllerAddr = d.ControllerAddr
	}
	if c.StopGrace <= 0 {
		c.StopGrace = d.StopGrace
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = d.KillTimeout
	}
	return c
}

type instance struct {
	handle ports.Handle
	script string
	cmd    *exec.Cmd
	stdin  *os.File
	waitCh chan error
	con    *console

	// mu serializes CLI round trips. stale counts prompts owed by
	// round trips that were abandoned on timeout.
	mu    sync.Mutex
	stale int
}

// Engine implements ports.TopologyEngine on top of the Mininet CLI.
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	live    map[ports.Handle]*instance
	booting int
}

var _ ports.TopologyEngine = (*Engine)(nil)

// New validates cfg and prepares the work directory.
func New(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if _, _, err := net.SplitHostPort(cfg.ControllerAddr); err != nil {
		return nil, fmt.Errorf("mininet controller address %q: %w", cfg.ControllerAddr, err)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
		return nil, fmt.Errorf("mininet work dir: %w", err)
	}
	return &Engine{
		cfg:    cfg,
		logger: log.WithComponent("engine.mininet"),
		live:   make(map[ports.Handle]*instance),
	}, nil
}

func (e *Engine) controllerArg() string {
	host, port, _ := net.SplitHostPort(e.cfg.ControllerAddr)
	return fmt.Sprintf("remote,ip=%s,port=%s", host, port)
}

// Create renders the topology script, starts the CLI and waits for its first prompt.
func (e *Engine) Create(ctx context.Context, spec ports.CreateSpec) (ports.Instance, error) {
	g, err := topology.Build(spec.Kind, spec.NodeCount, spec.Mode)
	if err != nil {
		return ports.Instance{}, err
	}
	script, err := topology.RenderMininetScript(g)
	if err != nil {
		return ports.Instance{}, err
	}

	// `mn -c` kills every Mininet process on the host, so it only runs while
	// this engine owns no topology and no other create is booting.
	e.mu.Lock()
	if e.cfg.Cleanup && len(e.live) == 0 && e.booting == 0 {
		e.cleanup(ctx)
	}
	e.booting++
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.booting--
		e.mu.Unlock()
	}()

	h := ports.Handle(HandlePrefix + uuid.NewString())
	path := filepath.Join(e.cfg.WorkDir, "topod-"+strings.TrimPrefix(h.String(), HandlePrefix)+".py")
	if err := renameio.WriteFile(path, script, 0o644); err != nil {
		return ports.Instance{}, fmt.Errorf("write topology script: %w", err)
	}

	inst, err := e.launch(h, path)
	if err != nil {
		_ = os.Remove(path)
		return ports.Instance{}, err
	}

	if _, err := inst.con.untilPrompt(ctx); err != nil {
		e.stop(inst)
		if errors.Is(err, ErrCLIExited) {
			return ports.Instance{}, fmt.Errorf("mininet failed to start: %w", err)
		}
		return ports.Instance{}, fmt.Errorf("wait for mininet prompt: %w", err)
	}

	e.mu.Lock()
	e.live[h] = inst
	e.mu.Unlock()

	e.logger.Info().
		Str(log.FieldEvent, "engine.created").
		Str(log.FieldSessionID, spec.SessionID).
		Str(log.FieldHandle, h.String()).
		Str(log.FieldKind, string(spec.Kind)).
		Uint(log.FieldNodeCount, spec.NodeCount).
		Int(log.FieldPID, inst.cmd.Process.Pid).
		Msg("mininet topology up")

	return ports.Instance{Handle: h, Hosts: g.Hosts, Switches: g.Switches, Links: g.Links}, nil
}

// launch starts the CLI process without binding it to any request context.
func (e *Engine) launch(h ports.Handle, script string) (*instance, error) {
	cmd := exec.Command(e.cfg.Binary,
		"--custom", script,
		"--topo", topology.MininetTopoName,
		"--controller", e.controllerArg(),
	)
	procgroup.Set(cmd)

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdinW.Close()
		return nil, err
	}
	cmd.Stdin = stdinR
	cmd.Stdout = outW
	cmd.Stderr = outW

	if err := cmd.Start(); err != nil {
		for _, f := range []*os.File{stdinR, stdinW, outR, outW} {
			_ = f.Close()
		}
		return nil, fmt.Errorf("start %s: %w", e.cfg.Binary, err)
	}
	// The child holds its own copies.
	_ = stdinR.Close()
	_ = outW.Close()
	metrics.ProcRunning.Inc()

	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = outR.Close()
		metrics.ProcRunning.Dec()
		waitCh <- err
	}()

	return &instance{
		handle: h,
		script: script,
		cmd:    cmd,
		stdin:  stdinW,
		waitCh: waitCh,
		con:    newConsole(outR),
	}, nil
}

// cleanup runs `mn -c` to clear leftovers of crashed runs. Failures are logged only.
func (e *Engine) cleanup(ctx context.Context) {
	cmd := exec.CommandContext(ctx, e.cfg.Binary, "-c")
	procgroup.Set(cmd)
	if out, err := cmd.CombinedOutput(); err != nil {
		e.logger.Warn().Err(err).Str(log.FieldEvent, "engine.cleanup_failed").Bytes("output", tail(out, 512)).Msg("mininet cleanup failed")
	}
}

func tail(b []byte, n int) []byte {
	if len(b) > n {
		return b[len(b)-n:]
	}
	return b
}

func (e *Engine) allowed(shellCommand string) bool {
	if len(e.cfg.AllowedCommands) == 0 {
		return true
	}
	for _, prefix := range e.cfg.AllowedCommands {
		if shellCommand == prefix || strings.HasPrefix(shellCommand, prefix+" ") {
			return true
		}
	}
	return false
}

// Exec sends one CLI line and returns the output printed before the next prompt.
// The CLI does not report exit codes, so completed commands report 0.
func (e *Engine) Exec(ctx context.Context, h ports.Handle, shellCommand string) (ports.ExecResult, error) {
	line := strings.TrimSpace(shellCommand)
	if strings.ContainsAny(line, "\r\n") {
		return ports.ExecResult{Stderr: "multi-line commands are not supported\n", ExitCode: ExitMultiline}, nil
	}
	if !e.allowed(line) {
		return ports.ExecResult{Stderr: fmt.Sprintf("command not allowed: %s\n", line), ExitCode: ExitNotAllowed}, nil
	}

	e.mu.Lock()
	inst, ok := e.live[h]
	e.mu.Unlock()
	if !ok {
		return ports.ExecResult{}, fmt.Errorf("unknown handle %q", h)
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	for inst.stale > 0 {
		if _, err := inst.con.untilPrompt(ctx); err != nil {
			return ports.ExecResult{}, fmt.Errorf("resync mininet CLI: %w", err)
		}
		inst.stale--
	}

	if _, err := inst.stdin.WriteString(line + "\n"); err != nil {
		return ports.ExecResult{}, fmt.Errorf("write to mininet CLI: %w", err)
	}
	out, err := inst.con.untilPrompt(ctx)
	if err != nil {
		if ctx.Err() != nil {
			inst.stale++
		}
		return ports.ExecResult{}, err
	}
	return ports.ExecResult{Stdout: out}, nil
}

// Destroy exits the CLI and kills its process group if it lingers.
// Unknown handles are ignored.
func (e *Engine) Destroy(ctx context.Context, h ports.Handle) error {
	e.mu.Lock()
	inst, ok := e.live[h]
	delete(e.live, h)
	e.mu.Unlock()
	if !ok {
		return nil
	}

	_, _ = inst.stdin.WriteString("exit\n")
	_ = inst.stdin.Close()

	var err error
	select {
	case err = <-inst.waitCh:
	case <-time.After(e.cfg.StopGrace):
		err = procgroup.Terminate(inst.cmd, inst.waitCh, e.cfg.StopGrace, e.cfg.KillTimeout)
	case <-ctx.Done():
		err = procgroup.Terminate(inst.cmd, inst.waitCh, 0, e.cfg.KillTimeout)
	}
	inst.con.close()
	_ = os.Remove(inst.script)

	e.logger.Info().Str(log.FieldEvent, "engine.destroyed").Str(log.FieldHandle, h.String()).Msg("mininet topology down")

	if errors.Is(err, procgroup.ErrKillFailed) {
		return fmt.Errorf("destroy %s: %w", h, err)
	}
	// A non-zero exit after `exit` or a signal still means the topology is gone.
	return nil
}

// stop tears down an instance that never became live.
func (e *Engine) stop(inst *instance) {
	_ = inst.stdin.Close()
	_ = procgroup.Terminate(inst.cmd, inst.waitCh, e.cfg.StopGrace, e.cfg.KillTimeout)
	inst.con.close()
	_ = os.Remove(inst.script)
}

// Shutdown destroys every live topology.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	handles := make([]ports.Handle, 0, len(e.live))
	for h := range e.live {
		handles = append(handles, h)
	}
	e.mu.Unlock()

	var errs []error
	for _, h := range handles {
		errs = append(errs, e.Destroy(ctx, h))
	}
	return errors.Join(errs...)
}

// Live returns the number of running CLI processes owned by the engine.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live)
}
