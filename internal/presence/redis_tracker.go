package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key patterns:
// presence  ZSET<identity> scored by last-activity unix millis

const presenceKey = "presence"

// RedisTracker keeps the presence set in one sorted set scored by
// last-activity time; every operation is a single command.
type RedisTracker struct {
	client *redis.Client
	window time.Duration
}

func NewRedisTracker(client *redis.Client, window time.Duration) (*RedisTracker, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisTracker{client: client, window: window}, nil
}

func (t *RedisTracker) Touch(ctx context.Context, identity string) error {
	// GT keeps the score monotonic under concurrent touches.
	return t.client.ZAddGT(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: identity,
	}).Err()
}

func (t *RedisTracker) ListOnline(ctx context.Context) ([]string, error) {
	cutoff := time.Now().Add(-t.window).UnixMilli()
	return t.client.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", cutoff),
		Max: "+inf",
	}).Result()
}

func (t *RedisTracker) SweepExpired(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-t.window).UnixMilli()
	return t.client.ZRemRangeByScore(ctx, presenceKey, "-inf", fmt.Sprintf("%d", cutoff)).Err()
}

func (t *RedisTracker) Close() error {
	return t.client.Close()
}
