// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/metrics"
)

// Emitter writes a session's events to its own connection, one at a time.
type Emitter struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	jsonOnly     bool

	mu sync.Mutex
}

var _ ports.EventEmitter = (*Emitter)(nil)

func NewEmitter(conn *websocket.Conn, writeTimeout time.Duration, jsonOnly bool) *Emitter {
	return &Emitter{conn: conn, writeTimeout: writeTimeout, jsonOnly: jsonOnly}
}

// Emit encodes ev and writes it as a text frame. A write that outlives the
// timeout closes the connection.
func (e *Emitter) Emit(ctx context.Context, ev model.Event) error {
	b, err := Encode(ev, e.jsonOnly)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.writeTimeout)
		defer cancel()
	}
	if err := e.conn.Write(ctx, websocket.MessageText, b); err != nil {
		return err
	}
	metrics.RecordWSFrame("out")
	return nil
}
