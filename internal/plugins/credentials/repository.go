package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bionotes/bionotes/internal/kvstore"
)

// Key-value store keys owned by this plugin. The layout is part of the
// persisted contract: "users" is a JSON array of user records, "currentUser"
// is the bare username of the last authenticated identity.
const (
	keyUsers       = "users"
	keyCurrentUser = "currentUser"
)

// UserRepository defines the persistence contract for the user collection
// and the current-user marker.
type UserRepository interface {
	// ListUsers returns the full registered-user collection.
	ListUsers(ctx context.Context) ([]User, error)

	// SaveUsers persists the full collection. There is no partial update;
	// every mutation rewrites the collection, matching the single-key layout.
	SaveUsers(ctx context.Context, users []User) error

	// CurrentUser returns the marker and whether it is set.
	CurrentUser(ctx context.Context) (string, bool, error)

	// SetCurrentUser writes the marker.
	SetCurrentUser(ctx context.Context, username string) error

	// ClearCurrentUser removes the marker. The user collection is untouched.
	ClearCurrentUser(ctx context.Context) error
}

// kvUserRepository is the key-value store implementation of UserRepository.
type kvUserRepository struct {
	store kvstore.Store
}

// NewUserRepository creates a repository over the given key-value store.
func NewUserRepository(store kvstore.Store) UserRepository {
	return &kvUserRepository{store: store}
}

// ListUsers reads and decodes the "users" collection. An absent key is an
// empty collection, not an error.
func (r *kvUserRepository) ListUsers(ctx context.Context) ([]User, error) {
	raw, ok, err := r.store.Get(ctx, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("reading user collection: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decoding user collection: %w", err)
	}
	return users, nil
}

// SaveUsers encodes and writes the full collection synchronously.
func (r *kvUserRepository) SaveUsers(ctx context.Context, users []User) error {
	if users == nil {
		users = []User{}
	}
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encoding user collection: %w", err)
	}
	if err := r.store.Set(ctx, keyUsers, string(data)); err != nil {
		return fmt.Errorf("writing user collection: %w", err)
	}
	return nil
}

// CurrentUser reads the marker.
func (r *kvUserRepository) CurrentUser(ctx context.Context) (string, bool, error) {
	username, ok, err := r.store.Get(ctx, keyCurrentUser)
	if err != nil {
		return "", false, fmt.Errorf("reading current user: %w", err)
	}
	if !ok || username == "" {
		return "", false, nil
	}
	return username, true, nil
}

// SetCurrentUser writes the marker.
func (r *kvUserRepository) SetCurrentUser(ctx context.Context, username string) error {
	if err := r.store.Set(ctx, keyCurrentUser, username); err != nil {
		return fmt.Errorf("writing current user: %w", err)
	}
	return nil
}

// ClearCurrentUser removes the marker.
func (r *kvUserRepository) ClearCurrentUser(ctx context.Context) error {
	if err := r.store.Delete(ctx, keyCurrentUser); err != nil {
		return fmt.Errorf("clearing current user: %w", err)
	}
	return nil
}
