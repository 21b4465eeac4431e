// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ws serves the session protocol over WebSocket text frames.
// Each connection owns exactly one session.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/topod/internal/domain/session/manager"
	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
)

// Config tunes the WebSocket endpoint.
type Config struct {
	// OriginPatterns allows cross-origin clients; same-origin is always allowed.
	OriginPatterns  []string
	WriteTimeout    time.Duration
	ReadLimit       int64
	FramesPerSecond float64
	Burst           int
	JSONOnly        bool
	// ReleaseTimeout bounds session teardown after the client goes away.
	ReleaseTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadLimit:       64 << 10,
		FramesPerSecond: 20,
		Burst:           40,
		ReleaseTimeout:  15 * time.Second,
	}
}

// Handler upgrades requests and pumps frames into sessions.
type Handler struct {
	mgr    *manager.Manager
	cfgFn  func() Config
	logger zerolog.Logger
}

// NewHandler reads cfgFn on every connection, so reloads apply to new clients.
func NewHandler(mgr *manager.Manager, cfgFn func() Config) *Handler {
	if cfgFn == nil {
		cfgFn = DefaultConfig
	}
	return &Handler{mgr: mgr, cfgFn: cfgFn, logger: log.WithComponent("ws")}
}

func (c Config) limiter() *rate.Limiter {
	if c.FramesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := c.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.FramesPerSecond), burst)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg := h.cfgFn()
	logger := log.WithContext(r.Context(), h.logger)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: cfg.OriginPatterns})
	if err != nil {
		// Accept has already written the HTTP error.
		logger.Warn().Err(err).Str(log.FieldEvent, "ws.accept_failed").Str(log.FieldRemote, r.RemoteAddr).Msg("websocket upgrade rejected")
		return
	}
	if cfg.ReadLimit > 0 {
		conn.SetReadLimit(cfg.ReadLimit)
	}

	ctx := r.Context()
	sess, err := h.mgr.Open(ctx, NewEmitter(conn, cfg.WriteTimeout, cfg.JSONOnly), r.RemoteAddr)
	if err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "ws.open_failed").Msg("session not opened")
		_ = conn.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	logger = logger.With().Str(log.FieldSessionID, sess.ID()).Logger()

	readerDone := make(chan struct{})
	defer close(readerDone)
	go func() {
		select {
		case <-sess.Done():
			_ = conn.Close(websocket.StatusGoingAway, "session closed")
		case <-readerDone:
		}
	}()

	defer func() {
		relCtx, cancel := context.WithTimeout(context.Background(), cfg.ReleaseTimeout)
		defer cancel()
		_ = h.mgr.Release(relCtx, sess)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	h.pump(ctx, conn, sess, cfg.limiter(), logger)
}

func (h *Handler) pump(ctx context.Context, conn *websocket.Conn, sess *manager.Session, lim *rate.Limiter, logger zerolog.Logger) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				logger.Debug().Str(log.FieldEvent, "ws.client_closed").Msg("client closed connection")
			default:
				logger.Debug().Err(err).Str(log.FieldEvent, "ws.read_failed").Msg("connection dropped")
			}
			return
		}
		metrics.RecordWSFrame("in")

		if err := lim.Wait(ctx); err != nil {
			return
		}
		if err := sess.Submit(ctx, string(data)); err != nil {
			if !errors.Is(err, manager.ErrSessionClosed) && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Str(log.FieldEvent, "ws.submit_failed").Msg("frame not queued")
			}
			return
		}
	}
}
