// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
)

// LogSink writes events to the structured log.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink { return &LogSink{logger: logger} }

func (s *LogSink) Name() string { return SinkLog }

func (s *LogSink) Send(_ context.Context, ev ports.ControllerEvent) error {
	s.logger.Info().
		Str(log.FieldEvent, string(ev.Type)).
		Str(log.FieldSessionID, ev.SessionID).
		Str(log.FieldHandle, ev.Handle.String()).
		Str(log.FieldKind, string(ev.Kind)).
		Str(log.FieldMode, string(ev.Mode)).
		Uint(log.FieldNodeCount, ev.NodeCount).
		Time("at", ev.At).
		Msg("controller notification")
	return nil
}
