package cache_store

import (
	"context"
	"sync_service/shared/inmemory_cache"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore - кэш в памяти процесса на шардированной мапе
type MemoryStore struct {
	cache *inmemory_cache.InmemoryShardedCache
}

func NewMemoryStore(numShards int, cleanUpInterval time.Duration) (*MemoryStore, error) {
	cache, err := inmemory_cache.NewInmemoryShardedCache(numShards, cleanUpInterval)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	payload, _, ok := s.cache.GetItem(key)
	return payload, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	s.cache.AddItemWithTTL(key, payload, ttl)
	return nil
}

func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	return s.cache.DeleteByPrefix(prefix), nil
}

func (s *MemoryStore) Close() error {
	s.cache.Close()
	return nil
}
