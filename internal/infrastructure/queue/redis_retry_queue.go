// Package queue provides the Redis-backed schedule for webhook retries.
package queue

import (
	"context"
	"fmt"
	"math"
	"time"

	"polyglot-shopify-sync/internal/ports"

	"github.com/redis/go-redis/v9"
)

const (
	retryKey       = "webhook-retries"
	baseRetryDelay = 30 * time.Second
	maxRetryDelay  = 30 * time.Minute
)

// RedisRetryQueue implements RetryQueue with a Redis sorted set keyed by the
// retry due time.
type RedisRetryQueue struct {
	client *redis.Client
}

// NewRedisRetryQueue creates a new Redis-backed retry queue
func NewRedisRetryQueue(client *redis.Client) ports.RetryQueue {
	return &RedisRetryQueue{client: client}
}

// Schedule enqueues one log id with an exponentially growing delay
func (q *RedisRetryQueue) Schedule(ctx context.Context, logID string, attempt int) error {
	delay := time.Duration(math.Pow(2, float64(attempt))) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	member := redis.Z{
		Score:  float64(time.Now().Add(delay).Unix()),
		Member: logID,
	}
	if err := q.client.ZAdd(ctx, retryKey, member).Err(); err != nil {
		return fmt.Errorf("failed to schedule webhook retry: %w", err)
	}
	return nil
}

// Due pops every log id whose scheduled time has passed
func (q *RedisRetryQueue) Due(ctx context.Context, now time.Time) ([]string, error) {
	rangeBy := &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}
	ids, err := q.client.ZRangeByScore(ctx, retryKey, rangeBy).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read retry queue: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	members := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		members = append(members, id)
	}
	if err := q.client.ZRem(ctx, retryKey, members...).Err(); err != nil {
		return nil, fmt.Errorf("failed to dequeue retries: %w", err)
	}
	return ids, nil
}
