// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package mininet

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// Prompt is what the Mininet CLI prints when it is ready for input.
const Prompt = "mininet> "

// ErrCLIExited is returned when the CLI output closes before the next prompt.
var ErrCLIExited = errors.New("mininet CLI exited")

// console splits the CLI output stream at prompts.
type console struct {
	chunks chan []byte
	done   chan struct{}
	once   sync.Once
	buf    []byte
}

func newConsole(r io.Reader) *console {
	c := &console{
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go c.pump(r)
	return c
}

func (c *console) pump(r io.Reader) {
	defer close(c.chunks)
	for {
		b := make([]byte, 4096)
		n, err := r.Read(b)
		if n > 0 {
			select {
			case c.chunks <- b[:n]:
			case <-c.done:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// untilPrompt returns everything printed before the next prompt.
func (c *console) untilPrompt(ctx context.Context) (string, error) {
	prompt := []byte(Prompt)
	for {
		if i := bytes.Index(c.buf, prompt); i >= 0 {
			out := string(c.buf[:i])
			c.buf = c.buf[i+len(prompt):]
			return out, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case b, ok := <-c.chunks:
			if !ok {
				return string(c.buf), ErrCLIExited
			}
			c.buf = append(c.buf, b...)
		}
	}
}

// close stops the pump; pending output is discarded.
func (c *console) close() {
	c.once.Do(func() { close(c.done) })
}
