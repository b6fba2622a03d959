// internal/repository/redisstore/idempotency_redis.go
package redisstore

import (
	"context"
	"fmt"
	"time"

	"fintrack-ledger/internal/repository"

	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "idempotency:"

// IdempotencyStore implements repository.IdempotencyStore on Redis.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a Redis-backed IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) repository.IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Reserve claims key with SET NX and a TTL.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	return ok, nil
}

// Release deletes key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, idempotencyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
