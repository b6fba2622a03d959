// pkg/cache/lock.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Locker runs work under a named lock shared between processes.
type Locker interface {
	// TryWithLock runs fn if lockKey can be acquired without waiting.
	// It reports whether fn ran.
	TryWithLock(ctx context.Context, lockKey string, fn func(context.Context) error) (bool, error)
}

// RedisLocker is a redsync-backed Locker.
type RedisLocker struct {
	redsync *redsync.Redsync
	expiry  time.Duration
	logger  *slog.Logger
}

// NewRedisLocker creates a Locker whose locks expire after expiry.
func NewRedisLocker(client *redis.Client, expiry time.Duration, logger *slog.Logger) *RedisLocker {
	pool := goredis.NewPool(client)
	return &RedisLocker{
		redsync: redsync.New(pool),
		expiry:  expiry,
		logger:  logger,
	}
}

// TryWithLock implements Locker. Contention is not an error.
func (l *RedisLocker) TryWithLock(ctx context.Context, lockKey string, fn func(context.Context) error) (bool, error) {
	if strings.TrimSpace(lockKey) == "" {
		return false, errors.New("lock key must not be empty")
	}

	mutex := l.redsync.NewMutex(lockKey, redsync.WithExpiry(l.expiry), redsync.WithTries(1))
	if err := mutex.LockContext(ctx); err != nil {
		// redsync reports contention as ErrFailed or an ErrTaken listing the nodes.
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) || strings.Contains(err.Error(), "lock already taken") {
			l.logger.Debug("Lock already held by another process", "lock_key", lockKey)
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}

	defer func() {
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			l.logger.Error("Failed to release lock", "lock_key", lockKey, "error", err)
		}
	}()

	if err := fn(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// LocalLocker runs work without coordination. Used when Redis is not configured.
type LocalLocker struct{}

// TryWithLock implements Locker by always running fn.
func (LocalLocker) TryWithLock(ctx context.Context, _ string, fn func(context.Context) error) (bool, error) {
	return true, fn(ctx)
}
