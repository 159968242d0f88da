package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss - ключ отсутствует в Redis
var ErrCacheMiss = errors.New("redis: cache miss")

// размер страницы SCAN при удалении по префиксу
const scanBatchSize = 500

// CacheRedisAdapter хранит байтовые значения под ключами с общим префиксом
type CacheRedisAdapter struct {
	client    *redis.Client
	keyPrefix string
}

// конструктор для адаптера кэша на базе Redis
func NewCacheAdapter(client *redis.Client, keyPrefix string) *CacheRedisAdapter {
	return &CacheRedisAdapter{client: client, keyPrefix: keyPrefix}
}

func (r *CacheRedisAdapter) fullKey(key string) string {
	return r.keyPrefix + key
}

// метод для завершения работы экземпляра redis
func (r *CacheRedisAdapter) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Ping проверяет доступность Redis
func (r *CacheRedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// метод для добавления значения с TTL в redis
func (r *CacheRedisAdapter) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return r.client.Set(ctx, r.fullKey(key), value, expiration).Err()
}

// GetBytes возвращает значение по ключу или ErrCacheMiss, если ключа нет
func (r *CacheRedisAdapter) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return val, err
}

// удаляет ключ, только если в нём всё ещё лежит ожидаемое значение
var deleteIfEqualScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeleteIfEqual удаляет ключ, если его значение совпадает с value.
// Проверка и удаление выполняются одним скриптом, поэтому параллельно записанное значение не теряется
func (r *CacheRedisAdapter) DeleteIfEqual(ctx context.Context, key string, value []byte) (bool, error) {
	n, err := deleteIfEqualScript.Run(ctx, r.client, []string{r.fullKey(key)}, value).Int()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteByPrefix удаляет все ключи сервиса, начинающиеся с prefix.
// Используется SCAN, чтобы не блокировать Redis командой KEYS
func (r *CacheRedisAdapter) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	pattern := r.fullKey(prefix) + "*"

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}
