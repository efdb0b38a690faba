// Package session implements the per-session basket store: Redis for
// production, an in-memory map for tests.
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/checkout-flow/internal/domain/basket"
)

// DefaultTTL keeps an idle basket alive long enough to finish checkout.
const DefaultTTL = 24 * time.Hour

var _ basket.Store = (*RedisStore)(nil)

// RedisStore persists JSON-serialized baskets in Redis, one key per session.
// The store must survive across requests for the duration of checkout; TTL
// refreshes on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a RedisStore over the client. A non-positive ttl falls
// back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func basketKey(sessionID string) string {
	return "checkout:basket:" + sessionID
}

// Get returns the session basket, or a fresh empty basket when none is stored.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*basket.Basket, error) {
	payload, err := s.client.Get(ctx, basketKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return basket.New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get basket")
	}

	var b basket.Basket
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, errors.Wrap(err, "unmarshal basket")
	}
	return &b, nil
}

// Set replaces the session basket atomically and refreshes its TTL.
func (s *RedisStore) Set(ctx context.Context, sessionID string, b *basket.Basket) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "marshal basket")
	}
	if err := s.client.Set(ctx, basketKey(sessionID), payload, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "set basket")
	}
	return nil
}

// Reset removes the session basket.
func (s *RedisStore) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, basketKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "delete basket")
	}
	return nil
}
