// RetailPulse - Retail Analytics Metrics Cache and Refresh Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailpulse

package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/retailpulse/internal/models"
)

// HistoryStore persists historical dashboard payloads by calendar day.
type HistoryStore interface {
	// Get returns the payload stored for day (YYYY-MM-DD). A missing day is
	// reported as (nil, false, nil).
	Get(ctx context.Context, day string) (*models.DashboardPayload, bool, error)

	// Put stores the payload for day, replacing any previous value.
	Put(ctx context.Context, day string, payload *models.DashboardPayload) error
}

const historyKeyPrefix = "dashboard:day:"

// BadgerHistoryStore implements HistoryStore on BadgerDB.
type BadgerHistoryStore struct {
	db     *badger.DB
	closer func() error
}

// NewBadgerHistoryStore wraps an already open database. The caller owns db.
func NewBadgerHistoryStore(db *badger.DB) *BadgerHistoryStore {
	return &BadgerHistoryStore{db: db}
}

// OpenBadgerHistoryStore opens (or creates) a database in dir.
// Close must be called to release it.
func OpenBadgerHistoryStore(dir string) (*BadgerHistoryStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // silence badger internals

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger history store: %w", err)
	}
	return &BadgerHistoryStore{db: db, closer: db.Close}, nil
}

// Get implements HistoryStore.
func (s *BadgerHistoryStore) Get(_ context.Context, day string) (*models.DashboardPayload, bool, error) {
	var payload models.DashboardPayload

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(historyKeyPrefix + day))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &payload)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get history %s: %w", day, err)
	}
	return &payload, true, nil
}

// Put implements HistoryStore.
func (s *BadgerHistoryStore) Put(_ context.Context, day string, payload *models.DashboardPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal history %s: %w", day, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(historyKeyPrefix+day), data); err != nil {
			return fmt.Errorf("set history %s: %w", day, err)
		}
		return nil
	})
}

// Days lists the stored days in key order.
func (s *BadgerHistoryStore) Days() ([]string, error) {
	var days []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(historyKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			days = append(days, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list history days: %w", err)
	}
	return days, nil
}

// Close releases the database if this store opened it.
func (s *BadgerHistoryStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
