// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package notify tells the network controller when topologies come and go.
// Delivery is best effort: failures are counted and logged, never retried.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
)

// Sink names accepted in Config.Sinks.
const (
	SinkLog   = "log"
	SinkHTTP  = "http"
	SinkRedis = "redis"
)

// DefaultTimeout bounds a single sink delivery.
const DefaultTimeout = 2 * time.Second

// Sink delivers a controller event to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev ports.ControllerEvent) error
}

// Config selects and configures the sinks.
type Config struct {
	Sinks   []string
	Timeout time.Duration
	HTTP    HTTPConfig
	Redis   RedisConfig
}

// FanOut delivers each event to every sink concurrently.
type FanOut struct {
	sinks   []Sink
	timeout time.Duration
	logger  zerolog.Logger
	closers []func() error
}

var _ ports.ControllerNotifier = (*FanOut)(nil)

// NewFanOut wraps already constructed sinks.
func NewFanOut(timeout time.Duration, sinks ...Sink) *FanOut {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &FanOut{
		sinks:   sinks,
		timeout: timeout,
		logger:  log.WithComponent("notify"),
	}
}

// New builds the sinks named in cfg. No sinks means log only.
func New(cfg Config) (*FanOut, error) {
	names := cfg.Sinks
	if len(names) == 0 {
		names = []string{SinkLog}
	}

	f := NewFanOut(cfg.Timeout)
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case SinkLog:
			f.sinks = append(f.sinks, NewLogSink(log.WithComponent("notify.log")))
		case SinkHTTP:
			s, err := NewHTTPSink(cfg.HTTP)
			if err != nil {
				return nil, err
			}
			f.sinks = append(f.sinks, s)
		case SinkRedis:
			s, err := NewRedisSink(cfg.Redis)
			if err != nil {
				return nil, err
			}
			f.sinks = append(f.sinks, s)
			f.closers = append(f.closers, s.Close)
		default:
			return nil, fmt.Errorf("unknown notify sink %q", name)
		}
	}
	return f, nil
}

// Notify sends ev to every sink and joins their errors.
func (f *FanOut) Notify(ctx context.Context, ev ports.ControllerEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	errs := make([]error, len(f.sinks))
	var wg sync.WaitGroup
	for i, s := range f.sinks {
		i, s := i, s
		wg.Add(1)
		go func() {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, f.timeout)
			defer cancel()

			err := s.Send(sctx, ev)
			if err != nil {
				metrics.RecordNotification(s.Name(), metrics.OutcomeError)
				f.logger.Warn().Err(err).
					Str(log.FieldEvent, "notify.sink_failed").
					Str("sink", s.Name()).
					Str(log.FieldSessionID, ev.SessionID).
					Str(log.FieldHandle, ev.Handle.String()).
					Msg("controller notification failed")
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
				return
			}
			metrics.RecordNotification(s.Name(), metrics.OutcomeOK)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Sinks returns the configured sink names.
func (f *FanOut) Sinks() []string {
	out := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		out[i] = s.Name()
	}
	return out
}

// Close releases sink connections.
func (f *FanOut) Close() error {
	var errs []error
	for _, c := range f.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
