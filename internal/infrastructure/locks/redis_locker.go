// Package locks provides distributed advisory locks backed by Redis so that
// concurrent syncs of the same resource never interleave their writes.
package locks

import (
	"context"
	"fmt"
	"time"

	"polyglot-shopify-sync/internal/domain"
	"polyglot-shopify-sync/internal/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	lockTTL      = 2 * time.Minute
	pollInterval = 250 * time.Millisecond
	waitBudget   = 30 * time.Second
)

// releaseScript deletes the lock key only when it still holds our token, so
// an expired lock reclaimed by another worker is never released by us.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// RedisLocker implements ResourceLocker with SET NX and a TTL
type RedisLocker struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisLocker creates a new Redis-backed resource locker
func NewRedisLocker(client *redis.Client, logger zerolog.Logger) ports.ResourceLocker {
	return &RedisLocker{
		client: client,
		logger: logger,
	}
}

// Lock acquires the lock for one resource, polling until the wait budget runs
// out. The returned function releases the lock.
func (l *RedisLocker) Lock(ctx context.Context, shop string, resourceType domain.ResourceType, id string) (func(), error) {
	key := fmt.Sprintf("sync-lock:%s:%s:%s", shop, resourceType, id)
	token := uuid.New().String()

	deadline := time.Now().Add(waitBudget)
	for {
		acquired, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if acquired {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLockHeld, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		l.logger.Warn().
			Err(err).
			Str("key", key).
			Msg("Failed to release resource lock")
	}
}
