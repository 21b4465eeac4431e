// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/persistence/sqlite"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS commands (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT    NOT NULL,
		kind       TEXT    NOT NULL,
		raw        TEXT    NOT NULL,
		status     TEXT    NOT NULL,
		detail     TEXT    NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id, id);
	CREATE INDEX IF NOT EXISTS idx_commands_created ON commands(created_at);`,
}

const commandColumns = `id, session_id, kind, raw, status, detail, created_at, updated_at`

// SqliteStore keeps the command history in a WAL-mode SQLite database.
// Timestamps are stored as unix nanoseconds.
type SqliteStore struct {
	db   *sql.DB
	path string
}

func OpenSqliteStore(path string) (*SqliteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store: path is required")
	}
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(db, sqliteMigrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SqliteStore{db: db, path: path}, nil
}

func (s *SqliteStore) Path() string { return s.path }

func (s *SqliteStore) Close() error { return s.db.Close() }

func (s *SqliteStore) Append(ctx context.Context, rec model.CommandRecord) (int64, error) {
	rec = stamp(rec)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (session_id, kind, raw, status, detail, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Kind, rec.Raw, string(rec.Status), rec.Detail, rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("append command: %w", err)
	}
	return res.LastInsertId()
}

func (s *SqliteStore) Complete(ctx context.Context, id int64, status model.CommandStatus, detail string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE commands SET status = ?, detail = ?, updated_at = ? WHERE id = ?`,
		string(status), detail, time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("complete command %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SqliteStore) Get(ctx context.Context, id int64) (model.CommandRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commandColumns+` FROM commands WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *SqliteStore) Last(ctx context.Context) (model.CommandRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+commandColumns+` FROM commands ORDER BY id DESC LIMIT 1`)
	return scanRecord(row)
}

func (s *SqliteStore) List(ctx context.Context, opts ListOptions) ([]model.CommandRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if opts.SessionID == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+commandColumns+` FROM commands ORDER BY id DESC LIMIT ?`, opts.limit())
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+commandColumns+` FROM commands WHERE session_id = ? ORDER BY id DESC LIMIT ?`, opts.SessionID, opts.limit())
	}
	if err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	defer rows.Close()

	out := []model.CommandRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SqliteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM commands WHERE created_at < ?`, cutoff.UTC().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune commands: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (model.CommandRecord, error) {
	var (
		rec              model.CommandRecord
		status           string
		created, updated int64
	)
	err := sc.Scan(&rec.ID, &rec.SessionID, &rec.Kind, &rec.Raw, &status, &rec.Detail, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CommandRecord{}, ErrNotFound
	}
	if err != nil {
		return model.CommandRecord{}, fmt.Errorf("scan command: %w", err)
	}
	rec.Status = model.CommandStatus(status)
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return rec, nil
}
