// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// BadgerStore keeps the command history in Badger:
// - records: key = "cmd:<zero-padded id>" (JSON), so key order is id order
// - ids: a Badger sequence at "seq:cmd"
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

var (
	cmdPrefix = []byte("cmd:")
	seqKey    = []byte("seq:cmd")
)

func cmdKey(id int64) []byte {
	return []byte(fmt.Sprintf("cmd:%020d", id))
}

func OpenBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, errors.New("badger store: path is required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	seq, err := db.GetSequence(seqKey, 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq}, nil
}

func (s *BadgerStore) Close() error {
	relErr := s.seq.Release()
	return errors.Join(relErr, s.db.Close())
}

func (s *BadgerStore) Append(_ context.Context, rec model.CommandRecord) (int64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next command id: %w", err)
	}
	rec = stamp(rec)
	rec.ID = int64(n) + 1
	buf, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cmdKey(rec.ID), buf)
	})
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (s *BadgerStore) Complete(_ context.Context, id int64, status model.CommandStatus, detail string) error {
	key := cmdKey(id)
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, key)
		if err != nil {
			return err
		}
		rec.Status = status
		rec.Detail = detail
		rec.UpdatedAt = time.Now().UTC()
		buf, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, buf)
	})
}

func getRecord(txn *badger.Txn, key []byte) (model.CommandRecord, error) {
	var rec model.CommandRecord
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (s *BadgerStore) Get(_ context.Context, id int64) (model.CommandRecord, error) {
	var out model.CommandRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = getRecord(txn, cmdKey(id))
		return err
	})
	return out, err
}

func (s *BadgerStore) Last(ctx context.Context) (model.CommandRecord, error) {
	recs, err := s.List(ctx, ListOptions{Limit: 1})
	if err != nil {
		return model.CommandRecord{}, err
	}
	if len(recs) == 0 {
		return model.CommandRecord{}, ErrNotFound
	}
	return recs[0], nil
}

func (s *BadgerStore) List(_ context.Context, opts ListOptions) ([]model.CommandRecord, error) {
	limit := opts.limit()
	out := []model.CommandRecord{}
	err := s.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Reverse = true
		iopts.Prefix = cmdPrefix
		it := txn.NewIterator(iopts)
		defer it.Close()

		seek := append(append([]byte{}, cmdPrefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(cmdPrefix) && len(out) < limit; it.Next() {
			var rec model.CommandRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if opts.SessionID != "" && rec.SessionID != opts.SessionID {
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

func (s *BadgerStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	var stale [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.Prefix = cmdPrefix
		it := txn.NewIterator(iopts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec model.CommandRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if rec.CreatedAt.Before(cutoff) {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil || len(stale) == 0 {
		return 0, err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return int64(len(stale)), nil
}
