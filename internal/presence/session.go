// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/visitline/internal/logging"
)

// SessionKey is the store key holding the session id.
const SessionKey = "visitor-session-id"

// SessionIDPrefix starts every generated session id.
const SessionIDPrefix = "tab_"

const sessionIDLength = 8

// SessionPolicy selects where the session id is kept.
type SessionPolicy string

const (
	// SessionPolicyMemory keeps the id for the life of the process.
	SessionPolicyMemory SessionPolicy = "memory"

	// SessionPolicyPersistent keeps the id in BadgerDB across restarts.
	SessionPolicyPersistent SessionPolicy = "persistent"
)

// NewSessionID returns "tab_" followed by eight base-36 characters taken
// from the random bits of a v4 uuid.
func NewSessionID() string {
	id := uuid.New()
	digits := new(big.Int).SetBytes(id[:]).Text(36)
	if len(digits) < sessionIDLength {
		digits = strings.Repeat("0", sessionIDLength-len(digits)) + digits
	}
	return SessionIDPrefix + digits[len(digits)-sessionIDLength:]
}

// SessionManager owns the session id of a presence client.
type SessionManager struct {
	mu     sync.Mutex
	store  SessionStore
	cached string
	newID  func() string
}

// NewSessionManager creates a manager over store. A nil store uses memory.
func NewSessionManager(store SessionStore) *SessionManager {
	if store == nil {
		store = NewMemorySessionStore()
	}
	return &SessionManager{store: store, newID: NewSessionID}
}

// OpenSessionManager creates a manager for policy. The persistent policy
// opens a badger database at path; call Close to release it.
func OpenSessionManager(policy SessionPolicy, path string) (*SessionManager, error) {
	switch policy {
	case SessionPolicyMemory, "":
		return NewSessionManager(NewMemorySessionStore()), nil
	case SessionPolicyPersistent:
		store, err := OpenBadgerSessionStore(path)
		if err != nil {
			return nil, err
		}
		return NewSessionManager(store), nil
	default:
		return nil, fmt.Errorf("unknown session policy %q", policy)
	}
}

// EnsureSessionID returns the stored id, generating and storing one if none
// exists. Store failures are logged and the id is kept in memory so it stays
// stable for the life of the manager.
func (m *SessionManager) EnsureSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached
	}

	stored, err := m.store.Get(SessionKey)
	if err == nil && stored != "" {
		m.cached = stored
		return stored
	}
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		logging.Warn().Err(err).Msg("Failed to read session id, generating a new one")
	}

	id := m.newID()
	if err := m.store.Set(SessionKey, id); err != nil {
		logging.Warn().Err(err).Str("session_id", id).Msg("Failed to store session id")
	}
	m.cached = id
	return id
}

// SessionID returns the current id without generating one.
func (m *SessionManager) SessionID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached, true
	}
	stored, err := m.store.Get(SessionKey)
	if err != nil || stored == "" {
		return "", false
	}
	m.cached = stored
	return stored, true
}

// ClearSessionID forgets the id; the next EnsureSessionID generates a new one.
func (m *SessionManager) ClearSessionID() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cached = ""
	if err := m.store.Delete(SessionKey); err != nil {
		return fmt.Errorf("clear session id: %w", err)
	}
	return nil
}

// Close releases the underlying store when it holds resources.
func (m *SessionManager) Close() error {
	if closer, ok := m.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
