package biometric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a finish call references a ceremony
// that never started or already expired.
var ErrSessionNotFound = errors.New("ceremony session not found")

// ceremonySession is the server-side half of a pending ceremony.
type ceremonySession struct {
	Kind    CeremonyKind         `json:"kind"`
	Prompt  string               `json:"prompt"`
	Session webauthn.SessionData `json:"session"`
}

// SessionStore holds pending ceremony sessions between the begin and finish
// phases. Sessions are single-use and expire with the ceremony timeout.
type SessionStore interface {
	Put(ctx context.Context, id string, session ceremonySession, ttl time.Duration) error

	// Take returns and deletes the session. ErrSessionNotFound when absent.
	Take(ctx context.Context, id string) (ceremonySession, error)
}

// MemorySessionStore is an in-process SessionStore for tests and
// single-binary development setups. TTLs are ignored.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]ceremonySession
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]ceremonySession)}
}

func (s *MemorySessionStore) Put(_ context.Context, id string, session ceremonySession, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session
	return nil
}

func (s *MemorySessionStore) Take(_ context.Context, id string) (ceremonySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return ceremonySession{}, ErrSessionNotFound
	}
	delete(s.sessions, id)
	return session, nil
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a Redis-backed ceremony session store. Keys are
// namespaced under "{prefix}:ceremony:" so deployments can share a Redis.
func NewSessionStore(client *redis.Client, prefix string) SessionStore {
	return &redisSessionStore{client: client, prefix: prefix}
}

func (s *redisSessionStore) key(id string) string {
	return s.prefix + ":ceremony:" + id
}

func (s *redisSessionStore) Put(ctx context.Context, id string, session ceremonySession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding ceremony session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("storing ceremony session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Take(ctx context.Context, id string) (ceremonySession, error) {
	var session ceremonySession

	data, err := s.client.GetDel(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session, ErrSessionNotFound
	}
	if err != nil {
		return session, fmt.Errorf("loading ceremony session: %w", err)
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return session, fmt.Errorf("decoding ceremony session: %w", err)
	}
	return session, nil
}
