// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CheckMode selects the SQLite integrity pragma.
type CheckMode string

const (
	QuickCheck CheckMode = "quick_check"
	FullCheck  CheckMode = "integrity_check"
)

// DefaultMaxProblems caps the diagnostics kept from one integrity run.
const DefaultMaxProblems = 10

// Integrity is the outcome of one integrity run against a history database.
type Integrity struct {
	Problems  []string
	Truncated bool // more problems were found than were kept
}

func (i Integrity) OK() bool { return len(i.Problems) == 0 }

// Summary renders the problems on one line for a health check.
func (i Integrity) Summary() string {
	if i.OK() {
		return "ok"
	}
	s := strings.Join(i.Problems, "; ")
	if i.Truncated {
		s += "; ..."
	}
	return s
}

// CheckIntegrity opens path read-only and runs mode, keeping at most
// maxProblems diagnostic rows. SQLite stops scanning once the limit is hit,
// so a badly damaged file does not stall the caller.
func CheckIntegrity(ctx context.Context, path string, mode CheckMode, maxProblems int) (Integrity, error) {
	if mode != FullCheck {
		mode = QuickCheck
	}
	if maxProblems <= 0 {
		maxProblems = DefaultMaxProblems
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(2000)", path))
	if err != nil {
		return Integrity{}, fmt.Errorf("open %s read-only: %w", path, err)
	}
	defer db.Close()

	// One extra row tells a capped result from an exact one.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA %s(%d)", mode, maxProblems+1))
	if err != nil {
		return Integrity{}, fmt.Errorf("%s: %w", mode, err)
	}
	defer rows.Close()

	var out Integrity
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return Integrity{}, fmt.Errorf("%s row: %w", mode, err)
		}
		if strings.EqualFold(line, "ok") {
			continue
		}
		if len(out.Problems) == maxProblems {
			out.Truncated = true
			continue
		}
		out.Problems = append(out.Problems, line)
	}
	if err := rows.Err(); err != nil {
		return Integrity{}, fmt.Errorf("%s rows: %w", mode, err)
	}
	return out, nil
}
