// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package progressbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cartographus/internal/logging"
)

// snapshotKey is the BadgerDB key holding the most recent job snapshot,
// grounded on the teacher's tautulliimport.progressKey convention
// (internal/import/progress.go).
const snapshotKey = "progress:job:snapshot"

// Store persists Progress Bus snapshots across restarts so RecoverOnStartup
// can cancel a job left running (spec §4.8).
type Store struct {
	db *badger.DB
}

// NewStore wraps an already-open BadgerDB handle.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Save writes s as the most recent snapshot.
func (st *Store) Save(ctx context.Context, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal progress snapshot: %w", err)
	}
	return st.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(snapshotKey), data)
	})
}

// Load returns the last saved snapshot, or nil if none was saved.
func (st *Store) Load(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	err := st.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &s)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load progress snapshot: %w", err)
	}
	if s.JobID == "" {
		return nil, nil
	}
	return &s, nil
}

// Clear removes the saved snapshot.
func (st *Store) Clear(ctx context.Context) error {
	return st.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(snapshotKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// SaveFunc adapts Store.Save into the callback StartJob expects, swallowing
// errors into a log line since progress persistence is best-effort and must
// never abort an in-flight job.
func (st *Store) SaveFunc(ctx context.Context) func(Snapshot) {
	return func(s Snapshot) {
		if err := st.Save(ctx, s); err != nil {
			logging.Err(err).Str("job_id", s.JobID).Msg("progress bus: failed to persist snapshot")
		}
	}
}
