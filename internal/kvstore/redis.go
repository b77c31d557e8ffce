package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is the production Store implementation. Keys are namespaced with a
// prefix (the analog of the browser's origin-scoped storage) and persisted
// without TTL -- auth state survives restarts; only the in-memory session
// lock state is recomputed on boot.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Redis-backed store writing under the given key prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "bionotes"
	}
	return &Redis{client: client, prefix: prefix}
}

// key namespaces a logical key, e.g. "users" -> "bionotes:kv:users".
func (r *Redis) key(k string) string {
	return r.prefix + ":kv:" + k
}

// Get returns the value stored under key, if any.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with no expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
