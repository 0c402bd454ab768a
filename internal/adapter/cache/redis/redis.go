package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/port/cache"
)

type redisCacheRepository struct {
	client *redis.Client
	logger *logger.Logger
}

// NewRedisClient connects and pings. A cache that cannot be reached at boot
// is a configuration problem, so this fails hard.
func NewRedisClient(address, password string, db int, log *logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error("Failed to connect to Redis", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to ping redis at %s: %w", address, err)
	}
	log.Info("Connected to Redis", zap.String("address", address))
	return rdb, nil
}

// NewRedisCacheRepository wraps a connected client as a CacheRepository.
func NewRedisCacheRepository(client *redis.Client, log *logger.Logger) cache.CacheRepository {
	return &redisCacheRepository{
		client: client,
		logger: log.Named("RedisCache"),
	}
}

func (r *redisCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrNotFound
		}
		r.logger.Error("Redis Get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (r *redisCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Redis Set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (r *redisCacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Redis Del failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}
