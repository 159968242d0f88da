package configs

import (
	"fmt"
	"time"
)

// бэкенды хранилища кэша
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendBolt   = "bolt"
)

// структура конфига кэша ответов провайдеров
type CachesConfig struct {
	Backend         string        `yaml:"backend"`          // memory | redis | bolt
	TTL             time.Duration `yaml:"ttl"`              // время жизни результата поиска одного провайдера
	NumOfShards     int           `yaml:"num_of_shards"`    // количество шардов для memory
	CleanUpInterval time.Duration `yaml:"cleanup_interval"` // интервал фоновой очистки для memory, 0 - только ленивое удаление
	BoltPath        string        `yaml:"bolt_path"`        // путь к файлу кэша для bolt
	BoltBucket      string        `yaml:"bolt_bucket"`
}

// функция, которая возвращает указатель на дэфолтный конфиг для кэша
func DefaultCacheConfig() *CachesConfig {
	return &CachesConfig{
		Backend:         CacheBackendMemory,
		TTL:             10 * time.Minute,
		NumOfShards:     7,
		CleanUpInterval: time.Minute,
		BoltPath:        "vacancy_cache.db",
		BoltBucket:      "search",
	}
}

func (c *CachesConfig) Validate() error {
	switch c.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendBolt:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %v", c.TTL)
	}
	if c.Backend == CacheBackendBolt && c.BoltPath == "" {
		return fmt.Errorf("bolt_path is required for bolt cache backend")
	}
	return nil
}
