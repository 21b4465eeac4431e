// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package command

import (
	"errors"
	"testing"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

func FuzzParse(f *testing.F) {
	for _, seed := range []string{
		"start:4:ring:partial", "stop", "exec:pingall", `{"type":"test"}`,
		"start:::", "exec::", "{", "stop stop",
	} {
		f.Add(seed)
	}
	vocab := model.DefaultVocabulary()

	f.Fuzz(func(t *testing.T, frame string) {
		cmd, err := Parse(frame, vocab)
		if (cmd == nil) == (err == nil) {
			t.Fatalf("Parse(%q) returned cmd=%v err=%v", frame, cmd, err)
		}
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse(%q) returned non-ParseError %T", frame, err)
			}
			return
		}
		if s, ok := cmd.(model.Start); ok {
			again, err := Parse(Format(s), vocab)
			if err != nil || again != model.Command(s) {
				t.Fatalf("start %q does not round trip: %v", frame, err)
			}
		}
	})
}
