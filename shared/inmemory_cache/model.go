package inmemory_cache

import (
	"sync"
	"time"
)

// основная структура inmemory cache для хранения сериализованных результатов поиска. Кэш - шардирован
type InmemoryShardedCache struct {
	shards    []*Shard
	numShards int
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time // источник времени, подменяется в тестах
}

// структура отдельного шарда
// ключем в мапе будет строка ----> хэш поискового запроса
type Shard struct {
	Items map[string]CacheItem
	mu    sync.RWMutex
}

// структура отдельного элемента inmemory cache
type CacheItem struct {
	value    []byte
	storedAt time.Time
	expTime  time.Time
}
