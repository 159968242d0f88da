package cache_store

import (
	"context"
	"errors"
	"sync_service/shared/redis"
	"time"
)

var _ Store = (*RedisStore)(nil)

// redisCache - операции адаптера Redis, которыми пользуется RedisStore
type redisCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	DeleteIfEqual(ctx context.Context, key string, value []byte) (bool, error)
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

var _ redisCache = (*redis.CacheRedisAdapter)(nil)

// RedisStore хранит конверты в Redis. Ключ истекает и на стороне Redis, и по проверке конверта
type RedisStore struct {
	adapter redisCache
	now     func() time.Time
}

func NewRedisStore(adapter *redis.CacheRedisAdapter) *RedisStore {
	return &RedisStore{adapter: adapter, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.adapter.GetBytes(ctx, key)
	if errors.Is(err, redis.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	env, err := decodeEnvelope(raw)
	if err != nil || !env.validAt(s.now()) {
		// удаляем только то значение, которое прочитали: свежий Set между чтением и удалением остаётся
		if _, delErr := s.adapter.DeleteIfEqual(ctx, key, raw); delErr != nil {
			return nil, false, delErr
		}
		return nil, false, nil
	}
	return env.payload, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	raw := encodeEnvelope(envelope{storedAt: s.now(), ttl: ttl, payload: payload})
	return s.adapter.Set(ctx, key, raw, ttl)
}

func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	return s.adapter.DeleteByPrefix(ctx, prefix)
}

func (s *RedisStore) Close() error {
	return s.adapter.Close()
}
