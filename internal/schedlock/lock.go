// Package schedlock prevents two scheduler replicas from running the same
// hourly tick twice, using a Redis SETNX key with a TTL per hour bucket.
package schedlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TickLock claims exclusive ownership of one scheduler tick across every
// worker replica sharing the same Redis instance.
type TickLock struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewTickLock(rdb *redis.Client, ttl time.Duration) *TickLock {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &TickLock{redis: rdb, ttl: ttl}
}

// Acquire claims the tick for the given hour bucket, returning true if this
// replica won the race.
func (l *TickLock) Acquire(ctx context.Context, at time.Time) (bool, error) {
	key := fmt.Sprintf("scheduler_tick:%s", at.UTC().Format("2006-01-02T15"))
	ok, err := l.redis.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming scheduler tick lock: %w", err)
	}
	return ok, nil
}
