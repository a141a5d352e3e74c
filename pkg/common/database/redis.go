package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
)

// OpenRedis connects to the redis instance that holds correspondence tables.
// Unlike the store connection it is not cached: only the redis-backed
// correspondence store asks for it, once per run.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s:%s: %w", cfg.RedisHost, cfg.RedisPort, err)
	}

	logger.Log.WithField("db", cfg.RedisDB).Info("Connected to Redis")
	return client, nil
}
