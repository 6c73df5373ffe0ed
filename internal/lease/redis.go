package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lease:"

// RedisStore backs leases with SETNX and key TTLs so that replicas share one
// deduplication window. Required when the service runs as more than one
// process; in-memory maps do not coordinate across instances.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, keyPrefix+key, string(StatusProcessing), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lease acquire %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, string(StatusCompleted), ttl).Err(); err != nil {
		return fmt.Errorf("lease complete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("lease release %s: %w", key, err)
	}
	return nil
}
