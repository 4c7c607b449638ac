package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/lock"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestMutexDo(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)
	m := lock.Mutex{R: r, TTL: time.Second, Retry: 5 * time.Millisecond}

	t.Run("runs the callback and releases", func(t *testing.T) {
		ran := false
		require.NoError(t, m.Do(ctx, "lock:cart:a", func(context.Context) error {
			ran = true
			n, err := r.Exists(ctx, "lock:cart:a").Result()
			require.NoError(t, err)
			require.EqualValues(t, 1, n)
			return nil
		}))
		require.True(t, ran)

		n, err := r.Exists(ctx, "lock:cart:a").Result()
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("callback errors release the lease", func(t *testing.T) {
		boom := errors.New("boom")
		require.ErrorIs(t, m.Do(ctx, "lock:cart:b", func(context.Context) error { return boom }), boom)
		require.NoError(t, m.Do(ctx, "lock:cart:b", func(context.Context) error { return nil }))
	})

	t.Run("held lease blocks until the context ends", func(t *testing.T) {
		require.NoError(t, r.SetNX(ctx, "lock:cart:c", "other", time.Minute).Err())
		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		err := m.Do(waitCtx, "lock:cart:c", func(context.Context) error { return nil })
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("unconfigured client errors", func(t *testing.T) {
		require.Error(t, lock.Mutex{}.Do(ctx, "k", func(context.Context) error { return nil }))
	})
}
