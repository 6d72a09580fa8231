package redis

import (
	"context"
	"fmt"
	"time"

	"creative_cure_backend/internal/config"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient connects to Redis. An empty REDIS_ADDR returns a nil client and the
// booking drafts and chat notifications stay in process.
func NewClient(cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-process draft store and chat notifier")
		return nil, func() {}, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("Connected to redis", zap.String("addr", cfg.RedisAddr))

	cleanup := func() {
		if err := rdb.Close(); err != nil {
			logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	return rdb, cleanup, nil
}
