package store

import (
	"context"
	"fmt"
	"time"

	"advisor-match-workers/internal/common/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker serializes matching runs across worker replicas with SET NX PX.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

func lockKey(scope string) string {
	return "lock:matching:" + scope
}

// Acquire takes the lock for scope. A held lock yields a MATCHING_IN_PROGRESS error,
// which is retryable. The returned release func is safe to call more than once.
func (l *Locker) Acquire(ctx context.Context, scope string) (func(context.Context) error, error) {
	key := lockKey(scope)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, errors.NewCacheUnavailableError(fmt.Errorf("acquire %s: %w", key, err))
	}
	if !ok {
		return nil, errors.NewMatchingInProgressError(scope)
	}

	released := false
	return func(ctx context.Context) error {
		if released {
			return nil
		}
		released = true
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}
