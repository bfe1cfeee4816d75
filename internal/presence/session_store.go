// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// SessionStore is an opaque key/value store for session identity.
type SessionStore interface {
	// Get returns the stored value or ErrSessionNotFound.
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemorySessionStore keeps values for the life of the process.
type MemorySessionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{values: make(map[string]string)}
}

// Get returns the stored value or ErrSessionNotFound.
func (s *MemorySessionStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrSessionNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemorySessionStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemorySessionStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

const badgerKeyPrefix = "presence:"

// BadgerSessionStore persists values in BadgerDB so identity survives restarts.
type BadgerSessionStore struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerSessionStore wraps an open database. Close does not close db.
func NewBadgerSessionStore(db *badger.DB) *BadgerSessionStore {
	return &BadgerSessionStore{db: db}
}

// OpenBadgerSessionStore opens (or creates) a database at path.
func OpenBadgerSessionStore(path string) (*BadgerSessionStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	return &BadgerSessionStore{db: db, ownsDB: true}, nil
}

// Get returns the stored value or ErrSessionNotFound.
func (s *BadgerSessionStore) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session value: %w", err)
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key.
func (s *BadgerSessionStore) Set(key, value string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerKeyPrefix+key), []byte(value)); err != nil {
			return fmt.Errorf("set session value: %w", err)
		}
		return nil
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *BadgerSessionStore) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(badgerKeyPrefix + key))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session value: %w", err)
		}
		return nil
	})
}

// Close closes the database if the store opened it.
func (s *BadgerSessionStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
