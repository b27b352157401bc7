// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package asana

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// SnapshotCache keeps raw project snapshots in a local badger store.
// It is a best-effort cache: every method degrades to a warning log on
// failure, because the authoritative snapshot lives in the relational
// store.
type SnapshotCache struct {
	db *badger.DB
}

// OpenSnapshotCache opens (or creates) the cache directory. Pass an
// empty path for an in-memory cache.
func OpenSnapshotCache(path string) (*SnapshotCache, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("create snapshot cache dir %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}
	return &SnapshotCache{db: db}, nil
}

func (s *SnapshotCache) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func snapshotKey(projectGID string) []byte {
	return []byte("snapshot/" + projectGID)
}

// Put stores a raw snapshot. Failures are logged, not returned.
func (s *SnapshotCache) Put(projectGID string, raw []byte) {
	if s == nil || s.db == nil {
		return
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(projectGID), raw)
	})
	if err != nil {
		slog.Warn("snapshot cache write failed", "project", projectGID, "error", err)
	}
}

// Get returns the cached raw snapshot, or ok=false when absent or on
// any cache failure.
func (s *SnapshotCache) Get(projectGID string) ([]byte, bool) {
	if s == nil || s.db == nil {
		return nil, false
	}
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(projectGID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		slog.Warn("snapshot cache read failed", "project", projectGID, "error", err)
		return nil, false
	}
	return raw, true
}
