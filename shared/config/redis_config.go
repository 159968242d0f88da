package config

import (
	"net"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig - подключение к Redis, который хранит кэш ответов провайдеров
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int32
	KeyPrefix       string // префикс ключей, чтобы не пересекаться с другими сервисами в той же базе
	PoolSize        int32
	MinIdleConns    int32
	MaxRetries      int32
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	PoolTimeout     time.Duration
	MaxConnAge      time.Duration
	MinRetryBackOff time.Duration
	MaxRetryBackOff time.Duration
}

// NewRedisConfigFromEnv читает REDIS_* и проверяет диапазоны значений
func NewRedisConfigFromEnv() (*RedisConfig, error) {
	var r envReader

	cfg := &RedisConfig{
		Addr:      net.JoinHostPort(r.required("REDIS_HOST"), r.required("REDIS_PORT")),
		Password:  getEnvWithDefault("REDIS_PASSWORD", ""),
		KeyPrefix: getEnvWithDefault("REDIS_KEY_PREFIX", "vacancy_sync:"),
		DB:        r.asInt32("REDIS_DB", 0, 0, 15),

		// кэш поиска не требует большого пула: запросов к Redis не больше, чем провайдеров на поиск
		PoolSize:     r.asInt32("REDIS_POOL_SIZE", 20, 1, 1000),
		MinIdleConns: r.asInt32("REDIS_MIN_IDLE_CONNS", 2, 0, 1000),
		MaxRetries:   r.asInt32("REDIS_MAX_RETRIES", 2, 0, 5),

		DialTimeout:     r.asDuration("REDIS_DIAL_TIMEOUT", 5*time.Second, time.Second, 30*time.Second),
		ReadTimeout:     r.asDuration("REDIS_READ_TIMEOUT", 3*time.Second, 100*time.Millisecond, 30*time.Second),
		WriteTimeout:    r.asDuration("REDIS_WRITE_TIMEOUT", 3*time.Second, 100*time.Millisecond, 30*time.Second),
		IdleTimeout:     r.asDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute, time.Minute, 24*time.Hour),
		PoolTimeout:     r.asDuration("REDIS_POOL_TIMEOUT", 4*time.Second, 100*time.Millisecond, time.Minute),
		MaxConnAge:      r.asDuration("REDIS_MAX_CONN_AGE", 30*time.Minute, time.Minute, 24*time.Hour),
		MinRetryBackOff: r.asDuration("REDIS_MIN_RETRY_BACKOFF", 100*time.Millisecond, 10*time.Millisecond, time.Second),
		MaxRetryBackOff: r.asDuration("REDIS_MAX_RETRY_BACKOFF", time.Second, 100*time.Millisecond, 10*time.Second),
	}

	r.expect(cfg.MinIdleConns <= cfg.PoolSize,
		"REDIS_MIN_IDLE_CONNS (%d) cannot be greater than REDIS_POOL_SIZE (%d)", cfg.MinIdleConns, cfg.PoolSize)
	r.expect(cfg.MinRetryBackOff <= cfg.MaxRetryBackOff,
		"REDIS_MIN_RETRY_BACKOFF (%v) cannot be greater than REDIS_MAX_RETRY_BACKOFF (%v)", cfg.MinRetryBackOff, cfg.MaxRetryBackOff)

	if err := r.err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToRedisOptions переводит конфиг в опции клиента go-redis
func (c *RedisConfig) ToRedisOptions() *redis.Options {
	return &redis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              int(c.DB),
		PoolSize:        int(c.PoolSize),
		MinIdleConns:    int(c.MinIdleConns),
		IdleTimeout:     c.IdleTimeout,
		PoolTimeout:     c.PoolTimeout,
		MaxConnAge:      c.MaxConnAge,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		MaxRetries:      int(c.MaxRetries),
		MinRetryBackoff: c.MinRetryBackOff,
		MaxRetryBackoff: c.MaxRetryBackOff,
	}
}
