package redisstore

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/signsofter/caseobserver-dashboard/internal/config"
)

// NewClient creates a redis client configured from RedisConfig and pings it
// so a bad address fails at startup rather than on the first token write.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
