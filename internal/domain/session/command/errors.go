// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package command

import (
	"fmt"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// ParseError reports a frame that could not be turned into a Command.
type ParseError struct {
	Kind   model.ErrorKind
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *ParseError) Unwrap() error {
	if e.Kind == model.ErrKindUnknownCommand {
		return model.ErrUnknownCommand
	}
	return model.ErrInvalidArgument
}

func invalid(raw, format string, args ...any) *ParseError {
	return &ParseError{Kind: model.ErrKindInvalidArgument, Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

func unknown(raw, reason string) *ParseError {
	return &ParseError{Kind: model.ErrKindUnknownCommand, Raw: raw, Reason: reason}
}
