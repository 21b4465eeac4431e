// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Deps contains what the server Manager needs to run.
type Deps struct {
	Logger zerolog.Logger

	// APIHandler serves the API, probes, metrics and /ws on one listener.
	APIHandler http.Handler
}

// Validate checks that required dependencies are set.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
