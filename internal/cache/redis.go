package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/bid-award/internal/router/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis opens a Redis client and checks it with a ping.
// The returned cleanup closes the client.
func NewRedis(ctx context.Context, cfg config.Config) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cleanup := func() {
		_ = client.Close()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, cleanup, nil
}
