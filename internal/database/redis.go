package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisReadTimeout = 2 * time.Second

// ConnectRedis configures the Redis client used for assignment caching and
// score event fan-out.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	// A slow cache read falls back to the database instead of stalling a submission.
	if options.ReadTimeout == 0 {
		options.ReadTimeout = redisReadTimeout
	}

	client := redis.NewClient(options)
	if err := PingRedis(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// PingRedis checks that the cache and event broker is reachable.
func PingRedis(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("unable to connect to redis: %w", err)
	}
	return nil
}
