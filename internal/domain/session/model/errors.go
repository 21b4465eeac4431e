// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import (
	"context"
	"errors"
)

// ErrorKind is the client-visible error taxonomy.
type ErrorKind string

const (
	ErrKindInvalidArgument ErrorKind = "invalid_argument"
	ErrKindUnknownCommand  ErrorKind = "unknown_command"
	ErrKindInvalidState    ErrorKind = "invalid_state"
	ErrKindEngineFailure   ErrorKind = "engine_failure"
	ErrKindTimeout         ErrorKind = "timeout"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidState    = errors.New("invalid state")
	ErrEngineFailure   = errors.New("engine failure")
	ErrTimeout         = errors.New("timeout")
)

// EngineError wraps a failed Topology Engine call.
type EngineError struct {
	Op     string
	Handle string
	Err    error
}

func (e *EngineError) Error() string {
	msg := "engine " + e.Op
	if e.Handle != "" {
		msg += " " + e.Handle
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() []error {
	return []error{ErrEngineFailure, e.Err}
}

// KindOf classifies err into the client-visible taxonomy. A failed engine
// call is an engine failure even when its deadline expired; timeout is kept
// for deadlines outside engine calls, such as teardown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return ErrKindInvalidArgument
	case errors.Is(err, ErrUnknownCommand):
		return ErrKindUnknownCommand
	case errors.Is(err, ErrInvalidState):
		return ErrKindInvalidState
	case errors.Is(err, ErrEngineFailure):
		return ErrKindEngineFailure
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrKindTimeout
	default:
		return ErrKindEngineFailure
	}
}
