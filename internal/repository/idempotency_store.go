// internal/repository/idempotency_store.go
package repository

import (
	"context"
	"time"
)

// IdempotencyStore reserves client-supplied request keys.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a key so the request can be retried.
	Release(ctx context.Context, key string) error
}
