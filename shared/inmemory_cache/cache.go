package inmemory_cache

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// конструктор для создания кэша с указаным количеством шардов и интервалом очистки кэша
func NewInmemoryShardedCache(numShards int, cleanUpInterval time.Duration) (*InmemoryShardedCache, error) {
	if numShards <= 0 {
		return nil, fmt.Errorf("numShards must be positive, got %d", numShards)
	}

	if cleanUpInterval < 0 {
		return nil, fmt.Errorf("cleanUpInterval must be non-negative, got %v", cleanUpInterval)
	}

	if numShards > 1000 {
		return nil, fmt.Errorf("numShards is too large: %d", numShards)
	}

	cache := &InmemoryShardedCache{
		shards:    make([]*Shard, numShards),
		numShards: numShards,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}

	for i := 0; i < numShards; i++ {
		cache.shards[i] = &Shard{
			Items: map[string]CacheItem{},
		}
	}

	// фоновую очистку запускаем только если интервал > 0,
	// просроченные записи всё равно удаляются лениво при чтении
	if cleanUpInterval > 0 {
		go cache.cleanUp(cleanUpInterval)
	}

	return cache, nil
}

// GetItem возвращает значение и момент его записи.
// Просроченная запись считается отсутствующей и сразу удаляется из шарда
func (c *InmemoryShardedCache) GetItem(key string) ([]byte, time.Time, bool) {
	shard := c.getShard(key)
	now := c.now()

	shard.mu.RLock()
	val, ok := shard.Items[key]
	shard.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false
	}

	if !now.Before(val.expTime) {
		shard.mu.Lock()
		// запись могли перезаписать между RUnlock и Lock
		if cur, ok := shard.Items[key]; ok && !now.Before(cur.expTime) {
			delete(shard.Items, key)
		}
		shard.mu.Unlock()
		return nil, time.Time{}, false
	}

	// наружу отдаём копию, иначе вызывающий код мог бы изменить закэшированные данные
	out := make([]byte, len(val.value))
	copy(out, val.value)
	return out, val.storedAt, true
}

// метод, чтобы находить нужный шард по заданному ключу
func (c *InmemoryShardedCache) getShard(key string) *Shard {
	hashf := fnv.New32a()
	// Write у fnv никогда не возвращает ошибку
	_, _ = hashf.Write([]byte(key))
	// хэш по ключу % количество шардов = индекс шарда в диапазоне от 0 до numShards-1
	shardIndex := int(hashf.Sum32() % uint32(c.numShards))

	return c.shards[shardIndex]
}

// метод, чтобы записать значение в кэш с заданным TTL
func (c *InmemoryShardedCache) AddItemWithTTL(key string, value []byte, ttl time.Duration) {
	shard := c.getShard(key)
	now := c.now()

	// копируем, чтобы вызывающий код не мог изменить закэшированные данные
	stored := make([]byte, len(value))
	copy(stored, value)

	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.Items[key] = CacheItem{
		value:    stored,
		storedAt: now,
		expTime:  now.Add(ttl),
	}
}

// DeleteByPrefix удаляет все ключи с указанным префиксом и возвращает их количество.
// Пустой префикс очищает кэш целиком
func (c *InmemoryShardedCache) DeleteByPrefix(prefix string) int {
	deleted := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key := range shard.Items {
			if strings.HasPrefix(key, prefix) {
				delete(shard.Items, key)
				deleted++
			}
		}
		shard.mu.Unlock()
	}
	return deleted
}

// Close останавливает фоновую очистку. Повторный вызов безопасен
func (c *InmemoryShardedCache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
