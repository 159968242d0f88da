package redis

import (
	"context"
	"errors"
	"fmt"
	"sync_service/shared/config"

	"github.com/go-redis/redis/v8"
)

var ErrNilConfig = errors.New("redis config is nil")

// NewRedisCacheAdapter подключается к Redis и возвращает адаптер кэша.
// Если Redis недоступен, клиент закрывается и возвращается ошибка
func NewRedisCacheAdapter(ctx context.Context, cfg *config.RedisConfig) (*CacheRedisAdapter, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	adapter := NewCacheAdapter(redis.NewClient(cfg.ToRedisOptions()), cfg.KeyPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := adapter.Ping(pingCtx); err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return adapter, nil
}
