// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/topod/internal/domain/session/command"
	"github.com/ManuGH/topod/internal/domain/session/lifecycle"
	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
	"github.com/ManuGH/topod/internal/telemetry"
)

// ErrSessionClosed is returned by Submit once the session loop has exited.
var ErrSessionClosed = errors.New("session closed")

const (
	detailAlreadyStopped = "already stopped"
	detailStartCanceled  = "start canceled"
)

var tracer = telemetry.Tracer("topod/session")

type envelope struct {
	seq          uint64
	raw          string
	cmd          model.Command
	err          error
	cancelsStart bool
}

type outcome struct {
	status model.CommandStatus
	detail string
}

// Session owns one connection's topology lifecycle. Frames are queued by
// Submit and applied strictly in order by a single loop goroutine, which is
// the only caller of the engine for this session.
type Session struct {
	id        string
	remote    string
	createdAt time.Time
	cfg       Config
	deps      Deps
	emitter   ports.EventEmitter
	logger    zerolog.Logger

	inbox  chan envelope
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	state         model.SessionState
	handle        ports.Handle
	topo          *model.TopologyInfo
	creating      context.CancelFunc
	stopCanceled  bool // set by Submit when a Stop aborted the in-flight create
	startCanceled bool // create aborted on behalf of a Stop still in the queue
	submitted     uint64
	// stoppedThrough is the last sequence number submitted when a Stop
	// completed. Stops queued at or before it coalesce into that Stop; zero
	// once any other frame has been applied.
	stoppedThrough uint64
	commands       uint64
}

func newSession(id, remote string, cfg Config, deps Deps, emitter ports.EventEmitter) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		remote:    remote,
		createdAt: time.Now().UTC(),
		cfg:       cfg,
		deps:      deps,
		emitter:   emitter,
		logger: log.WithComponent("session").With().
			Str(log.FieldSessionID, id).
			Logger(),
		inbox:  make(chan envelope, cfg.QueueSize),
		ctx:    log.ContextWithSessionID(ctx, id),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  model.SessionIdle,
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Done is closed once the loop has exited and teardown has finished or been abandoned.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info returns a point-in-time snapshot.
func (s *Session) Info() model.SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.SessionInfo{
		ID:        s.id,
		State:     s.state,
		Handle:    string(s.handle),
		Topology:  s.topo,
		Remote:    s.remote,
		CreatedAt: s.createdAt,
		Commands:  s.commands,
	}
}

// Submit parses frame and queues it for the loop. It blocks while the inbox
// is full, which pushes back on the connection reader.
func (s *Session) Submit(ctx context.Context, frame string) error {
	cmd, err := command.Parse(frame, s.cfg.Vocabulary)
	env := envelope{raw: frame, cmd: cmd, err: err}

	s.mu.Lock()
	s.submitted++
	env.seq = s.submitted
	if cmd != nil && cmd.Kind() == model.CmdStop && s.cfg.CancelStartOnStop && s.creating != nil {
		s.creating()
		s.stopCanceled = true
		env.cancelsStart = true
	}
	s.mu.Unlock()

	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	default:
	}

	select {
	case s.inbox <- env:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop and waits for teardown, bounded by ctx.
func (s *Session) Close(ctx context.Context) error {
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session %s close: %w", s.id, ctx.Err())
	}
}

func (s *Session) run() {
	defer func() {
		s.teardown()
		s.logger.Info().Str(log.FieldEvent, "session.closed").Msg("session closed")
		close(s.done)
	}()

	s.logger.Info().
		Str(log.FieldEvent, "session.started").
		Str(log.FieldRemote, s.remote).
		Msg("session started")
	s.emit(model.ConnectedEvent(s.id))

	for {
		select {
		case <-s.ctx.Done():
			return
		case env := <-s.inbox:
			s.process(env)
		}
	}
}

func (s *Session) process(env envelope) {
	s.mu.Lock()
	s.commands++
	s.mu.Unlock()

	kind := model.KindInvalid
	if env.cmd != nil {
		kind = string(env.cmd.Kind())
	}

	recID, err := s.deps.History.Append(s.ctx, model.CommandRecord{
		SessionID: s.id,
		Kind:      kind,
		Raw:       env.raw,
		Status:    model.CommandPending,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "history.append_failed").Msg("command history append failed")
	}

	out := s.apply(env)

	if recID > 0 {
		if err := s.deps.History.Complete(s.ctx, recID, out.status, out.detail); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, "history.complete_failed").Msg("command history update failed")
		}
	}
	metrics.RecordCommand(kind, commandOutcome(out.status))
}

func commandOutcome(st model.CommandStatus) string {
	switch st {
	case model.CommandSucceeded:
		return metrics.OutcomeOK
	case model.CommandRejected:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func (s *Session) apply(env envelope) outcome {
	if env.err != nil || env.cmd.Kind() != model.CmdStop {
		s.mu.Lock()
		s.stoppedThrough = 0
		s.mu.Unlock()
	}

	if env.err != nil {
		raw := env.raw
		var pe *command.ParseError
		if errors.As(env.err, &pe) {
			raw = pe.Raw
		}
		s.emit(model.ErrorEvent(model.KindOf(env.err), env.err.Error(), raw))
		return outcome{status: model.CommandRejected, detail: env.err.Error()}
	}

	state := s.State()
	kind := env.cmd.Kind()

	if kind == model.CmdStop && state == model.SessionIdle {
		if out, ok := s.resolveIdleStop(env); ok {
			return out
		}
	}

	d, ok := lifecycle.DecisionFor(state, kind)
	if !ok || !d.Allowed {
		reason := lifecycle.ForbiddenReason(state, kind)
		s.logger.Debug().
			Str(log.FieldEvent, "session.command_rejected").
			Str(log.FieldCommand, string(kind)).
			Str("state", string(state)).
			Msg(reason)
		s.emit(model.ErrorEvent(model.ErrKindInvalidState, reason, env.raw))
		return outcome{status: model.CommandRejected, detail: reason}
	}

	switch d.Transition.Op {
	case lifecycle.OpCreate:
		return s.doCreate(env.cmd.(model.Start), d.Transition)
	case lifecycle.OpDestroy:
		return s.doDestroy(d.Transition)
	case lifecycle.OpExec:
		return s.doExec(env.cmd.(model.Exec))
	default:
		s.emit(echo(env.cmd))
		return outcome{status: model.CommandSucceeded}
	}
}

// resolveIdleStop turns a Stop that was already queued when an earlier Stop
// completed, or that aborted the preceding Start, into an acknowledgement
// instead of an error.
func (s *Session) resolveIdleStop(env envelope) (outcome, bool) {
	s.mu.Lock()
	canceled := env.cancelsStart && s.startCanceled
	stopped := s.stoppedThrough > 0 && env.seq <= s.stoppedThrough
	if canceled {
		s.startCanceled = false
		s.stoppedThrough = s.submitted
	}
	s.mu.Unlock()

	detail := ""
	switch {
	case canceled:
		detail = detailStartCanceled
	case stopped:
		detail = detailAlreadyStopped
	default:
		return outcome{}, false
	}
	ack := model.AckEvent(model.CmdStop)
	ack.Detail = detail
	s.emit(ack)
	return outcome{status: model.CommandSucceeded, detail: detail}, true
}

// echo acknowledges a frame that never reaches the engine. Structured frames
// are acked under their own type.
func echo(cmd model.Command) model.Event {
	switch c := cmd.(type) {
	case model.ClientHello:
		return model.EchoEvent(c.Kind(), c.Payload)
	case model.Test:
		return model.EchoEvent(c.Kind(), c.Payload)
	case model.Structured:
		return model.EchoEvent(model.CommandKind(c.Type), c.Payload)
	default:
		return model.AckEvent(cmd.Kind())
	}
}

func (s *Session) doCreate(start model.Start, tr lifecycle.Transition) outcome {
	spec := ports.CreateSpec{
		SessionID: s.id,
		NodeCount: start.NodeCount,
		Kind:      start.Topology,
		Mode:      start.Mode,
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.CreateTimeout)
	defer cancel()

	s.mu.Lock()
	s.creating = cancel
	s.stopCanceled = false
	s.mu.Unlock()

	var inst ports.Instance
	err := s.engineCall(ctx, "create", telemetry.TopologyAttributes("", string(spec.Kind), string(spec.Mode), spec.NodeCount), func(ctx context.Context) error {
		var err error
		inst, err = s.deps.Engine.Create(ctx, spec)
		return err
	})

	s.mu.Lock()
	s.creating = nil
	byStop := s.stopCanceled
	s.stopCanceled = false
	s.mu.Unlock()

	if err != nil {
		if inst.Handle != "" {
			s.discard(inst.Handle)
		}
		s.mu.Lock()
		s.startCanceled = byStop
		s.mu.Unlock()
		s.setState(tr.OnFailure)
		s.logger.Warn().Err(err).
			Str(log.FieldEvent, "engine.create_failed").
			Str(log.FieldKind, string(spec.Kind)).
			Bool("canceled_by_stop", byStop).
			Msg("topology create failed")
		msg := err.Error()
		if byStop {
			msg = "start canceled by stop: " + msg
		}
		s.emit(model.ErrorEvent(model.ErrKindEngineFailure, msg, ""))
		return outcome{status: model.CommandFailed, detail: msg}
	}

	info := inst.Info(spec)
	s.mu.Lock()
	s.handle = inst.Handle
	s.topo = info
	s.startCanceled = false
	s.mu.Unlock()
	s.setState(tr.OnSuccess)

	s.logger.Info().
		Str(log.FieldEvent, "topology.created").
		Str(log.FieldHandle, inst.Handle.String()).
		Str(log.FieldKind, string(spec.Kind)).
		Str(log.FieldMode, string(spec.Mode)).
		Uint(log.FieldNodeCount, spec.NodeCount).
		Msg("topology created")
	s.notify(ports.ControllerEvent{
		Type:      ports.TopologyCreated,
		SessionID: s.id,
		Handle:    inst.Handle,
		Kind:      spec.Kind,
		Mode:      spec.Mode,
		NodeCount: spec.NodeCount,
	})

	ack := model.AckEvent(model.CmdStart)
	ack.SessionID = s.id
	ack.Topology = info
	s.emit(ack)
	return outcome{status: model.CommandSucceeded, detail: inst.Handle.String()}
}

// discard releases a handle the engine returned alongside an error.
func (s *Session) discard(h ports.Handle) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DestroyTimeout)
	defer cancel()
	if err := s.deps.Engine.Destroy(ctx, h); err != nil {
		s.logger.Error().Err(err).
			Str(log.FieldEvent, "session.teardown_leak").
			Str(log.FieldHandle, h.String()).
			Msg("could not release handle from failed create")
		metrics.RecordTeardownLeak()
	}
}

func (s *Session) doDestroy(tr lifecycle.Transition) outcome {
	s.mu.Lock()
	h := s.handle
	topo := s.topo
	s.mu.Unlock()

	if tr.Via != "" {
		s.setState(tr.Via)
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.DestroyTimeout)
	defer cancel()
	err := s.engineCall(ctx, "destroy", telemetry.TopologyAttributes(h.String(), "", "", 0), func(ctx context.Context) error {
		return s.deps.Engine.Destroy(ctx, h)
	})
	if err != nil {
		s.setState(tr.OnFailure)
		s.logger.Warn().Err(err).
			Str(log.FieldEvent, "engine.destroy_failed").
			Str(log.FieldHandle, h.String()).
			Msg("topology destroy failed; handle retained")
		s.emit(model.ErrorEvent(model.ErrKindEngineFailure, err.Error(), ""))
		return outcome{status: model.CommandFailed, detail: err.Error()}
	}

	s.mu.Lock()
	s.handle = ""
	s.topo = nil
	s.stoppedThrough = s.submitted
	s.mu.Unlock()
	s.setState(tr.OnSuccess)

	s.logger.Info().
		Str(log.FieldEvent, "topology.destroyed").
		Str(log.FieldHandle, h.String()).
		Msg("topology destroyed")
	s.notifyDestroyed(h, topo)

	s.emit(model.AckEvent(model.CmdStop))
	return outcome{status: model.CommandSucceeded, detail: h.String()}
}

func (s *Session) doExec(ex model.Exec) outcome {
	s.mu.Lock()
	h := s.handle
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ExecTimeout)
	defer cancel()

	var res ports.ExecResult
	err := s.engineCall(ctx, "exec", telemetry.TopologyAttributes(h.String(), "", "", 0), func(ctx context.Context) error {
		var err error
		res, err = s.deps.Engine.Exec(ctx, h, ex.ShellCommand)
		return err
	})
	if err != nil {
		s.logger.Warn().Err(err).
			Str(log.FieldEvent, "engine.exec_failed").
			Str(log.FieldHandle, h.String()).
			Msg("exec failed")
		s.emit(model.ErrorEvent(model.ErrKindEngineFailure, err.Error(), ""))
		return outcome{status: model.CommandFailed, detail: err.Error()}
	}

	s.emit(model.ExecResultEvent(ex.ShellCommand, res.Stdout, res.Stderr, res.ExitCode))
	return outcome{status: model.CommandSucceeded, detail: fmt.Sprintf("exit %d", res.ExitCode)}
}

// engineCall wraps a single engine operation with a span and latency metric.
// Errors come back as *model.EngineError.
func (s *Session) engineCall(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "engine."+op,
		trace.WithAttributes(telemetry.SessionAttributes(s.id, string(s.State()), op)...),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if err == nil {
		metrics.ObserveEngineCall(op, metrics.OutcomeOK, time.Since(start))
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		metrics.ObserveEngineCall(op, metrics.OutcomeTimeout, time.Since(start))
	} else {
		metrics.ObserveEngineCall(op, metrics.OutcomeError, time.Since(start))
	}
	var ee *model.EngineError
	if !errors.As(err, &ee) {
		err = &model.EngineError{Op: op, Err: err}
	}
	telemetry.RecordError(span, err, string(model.KindOf(err)))
	return err
}

func (s *Session) setState(to model.SessionState) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()
	if from == to {
		return
	}
	metrics.RecordTransition(string(from), string(to), from.HoldsTopology(), to.HoldsTopology())
	s.logger.Debug().
		Str(log.FieldEvent, "session.transition").
		Str(log.FieldOldState, string(from)).
		Str(log.FieldNewState, string(to)).
		Msg("state transition")
}

func (s *Session) emit(ev model.Event) {
	if ev.SessionID == "" {
		ev.SessionID = s.id
	}
	if err := s.emitter.Emit(s.ctx, ev); err != nil {
		s.logger.Debug().Err(err).
			Str(log.FieldEvent, "session.emit_failed").
			Str("type", string(ev.Type)).
			Msg("event not delivered")
	}
}

func (s *Session) notify(ev ports.ControllerEvent) {
	ev.At = time.Now().UTC()
	if err := s.deps.Notifier.Notify(s.ctx, ev); err != nil {
		s.logger.Warn().Err(err).
			Str(log.FieldEvent, "notify.failed").
			Str("type", string(ev.Type)).
			Msg("controller notification failed")
	}
}

func (s *Session) notifyDestroyed(h ports.Handle, topo *model.TopologyInfo) {
	ev := ports.ControllerEvent{Type: ports.TopologyDestroyed, SessionID: s.id, Handle: h}
	if topo != nil {
		ev.Kind, ev.Mode, ev.NodeCount = topo.Kind, topo.Mode, topo.NodeCount
	}
	s.notify(ev)
}

// teardown releases a held handle when the loop exits. The destroy call runs
// in its own goroutine so a stuck engine cannot hold the close path past
// TeardownTimeout; on expiry the handle is abandoned and reported as a leak.
func (s *Session) teardown() {
	s.mu.Lock()
	h := s.handle
	topo := s.topo
	s.mu.Unlock()

	if h == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TeardownTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.deps.Engine.Destroy(ctx, h)
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		s.logger.Error().Err(err).
			Str(log.FieldEvent, "session.teardown_leak").
			Str(log.FieldHandle, h.String()).
			Dur("timeout", s.cfg.TeardownTimeout).
			Msg("topology abandoned during teardown")
		metrics.RecordTeardownLeak()
		return
	}

	s.mu.Lock()
	s.handle = ""
	s.topo = nil
	s.mu.Unlock()
	s.setState(model.SessionIdle)

	notifyCtx, cancelNotify := context.WithTimeout(context.Background(), s.cfg.TeardownTimeout)
	defer cancelNotify()
	ev := ports.ControllerEvent{Type: ports.TopologyDestroyed, SessionID: s.id, Handle: h, At: time.Now().UTC()}
	if topo != nil {
		ev.Kind, ev.Mode, ev.NodeCount = topo.Kind, topo.Mode, topo.NodeCount
	}
	if err := s.deps.Notifier.Notify(notifyCtx, ev); err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "notify.failed").Msg("controller notification failed")
	}
	s.logger.Info().
		Str(log.FieldEvent, "session.teardown").
		Str(log.FieldHandle, h.String()).
		Msg("topology released on close")
}
