// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ManuGH/topod/internal/domain/session/ports"
)

// HTTPConfig configures the webhook sink.
type HTTPConfig struct {
	URL string
	// Token is sent as a bearer token when set.
	Token string
}

// HTTPSink POSTs each event as JSON.
type HTTPSink struct {
	url    string
	token  string
	client *http.Client
}

func NewHTTPSink(cfg HTTPConfig) (*HTTPSink, error) {
	if cfg.URL == "" {
		return nil, errors.New("notify http sink: url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("notify http sink: invalid url %q", cfg.URL)
	}
	return &HTTPSink{url: cfg.URL, token: cfg.Token, client: &http.Client{}}, nil
}

func (s *HTTPSink) Name() string { return SinkHTTP }

func (s *HTTPSink) Send(ctx context.Context, ev ports.ControllerEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
