// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
)

func signal(cmd *exec.Cmd, sig syscall.Signal, name string) {
	switch err := Kill(cmd, sig); {
	case err == nil:
		metrics.IncProcSignal(name, "sent")
	case isGone(err):
		metrics.IncProcSignal(name, "esrch")
	default:
		metrics.IncProcSignal(name, "error")
		log.L().Warn().Err(err).Int(log.FieldPID, cmd.Process.Pid).Str("signal", name).Msg("signal process group failed")
	}
}

// Terminate stops a process group: SIGTERM, then SIGKILL once grace expires.
// waitCh must deliver the result of cmd.Wait; Terminate consumes and returns it.
// If the group outlives SIGKILL by killTimeout, ErrKillFailed is returned and
// waitCh is left undrained. Safe on nil or unstarted commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace, killTimeout time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	signal(cmd, syscall.SIGTERM, "SIGTERM")

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcExit("exit0")
		} else {
			metrics.IncProcExit("exit_nonzero")
		}
		return err
	case <-time.After(grace):
	}

	log.L().Warn().Int(log.FieldPID, cmd.Process.Pid).Msg("SIGTERM grace period exceeded, sending SIGKILL to process group")
	signal(cmd, syscall.SIGKILL, "SIGKILL")

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcExit("forced_exit0")
		} else {
			metrics.IncProcExit("forced_error")
		}
		return err
	case <-time.After(killTimeout):
		return ErrKillFailed
	}
}
