// Package kvstore provides the string-keyed persistence contract used by the
// authentication plugins: registered users, the current-user marker, and the
// platform credential handle all live behind this interface. It is injected
// into the credential store and biometric bridge constructors so tests can
// substitute the in-memory implementation for the Redis-backed one.
//
// The store has no transaction isolation. Two concurrent writers (e.g. two
// server instances sharing one Redis) can race on read-modify-write keys
// such as the user collection; single-deployment usage is assumed.
package kvstore

import (
	"context"
	"sync"
)

// Store is a persistent, string-keyed value store. Get reports presence
// explicitly so callers can distinguish "absent" from "empty string".
// Implementations must surface write failures as errors, never swallow them.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-memory Store for tests and degraded single-process runs.
// Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string

	// FailWrites, when set, makes Set and Delete return the given error.
	// Used by tests to exercise storage-failure propagation.
	FailWrites error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get returns the value stored under key, if any.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports the number of stored keys. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
