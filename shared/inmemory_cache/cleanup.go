package inmemory_cache

import "time"

// фоновая очистка кэша с заданным интервалом, работает до вызова Close
func (c *InmemoryShardedCache) cleanUp(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanUpExpired()
		case <-c.stopChan:
			return
		}
	}
}

// метод для очистки кэша от устаревших данных
func (c *InmemoryShardedCache) cleanUpExpired() int {
	start := c.now()
	removed := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key, value := range shard.Items {
			if !start.Before(value.expTime) {
				delete(shard.Items, key)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	return removed
}
