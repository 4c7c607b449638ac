package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Mutex is a Redis lease that serialises repricing of a single cart across
// worker instances. TTL bounds how long a crashed holder can block others.
type Mutex struct {
	R     *redis.Client
	TTL   time.Duration
	Retry time.Duration
}

// Tokened delete so an expired holder cannot release a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`)

// Do runs fn while holding the lease for key, polling until the lease is
// free or the context ends. The lease is released when fn returns.
func (m Mutex) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if m.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := m.Retry
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	token := uuid.NewString()

	for {
		ok, err := m.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			break
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	defer func() {
		_ = releaseScript.Run(context.Background(), m.R, []string{key}, token).Err()
	}()
	return fn(ctx)
}
