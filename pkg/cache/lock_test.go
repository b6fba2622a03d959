// pkg/cache/lock_test.go
package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewRedisLocker(setupTestRedis(t), 10*time.Second, slog.Default())

	t.Run("RunsUnderLock", func(t *testing.T) {
		ran, err := locker.TryWithLock(ctx, "lock:test", func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("SkipsWhenHeld", func(t *testing.T) {
		var innerRan bool
		ran, err := locker.TryWithLock(ctx, "lock:nested", func(ctx context.Context) error {
			var innerErr error
			innerRan, innerErr = locker.TryWithLock(ctx, "lock:nested", func(ctx context.Context) error { return nil })
			return innerErr
		})
		require.NoError(t, err)
		assert.True(t, ran)
		assert.False(t, innerRan, "second acquisition must not run while the lock is held")
	})

	t.Run("ReleasedAfterRun", func(t *testing.T) {
		_, err := locker.TryWithLock(ctx, "lock:release", func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		ran, err := locker.TryWithLock(ctx, "lock:release", func(ctx context.Context) error { return nil })
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("PropagatesError", func(t *testing.T) {
		boom := errors.New("boom")
		ran, err := locker.TryWithLock(ctx, "lock:error", func(ctx context.Context) error { return boom })
		assert.True(t, ran)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("EmptyKey", func(t *testing.T) {
		_, err := locker.TryWithLock(ctx, " ", func(ctx context.Context) error { return nil })
		assert.Error(t, err)
	})
}

func TestLocalLocker(t *testing.T) {
	ran, err := LocalLocker{}.TryWithLock(context.Background(), "any", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Addr: "localhost:6379"}.Enabled())
}
