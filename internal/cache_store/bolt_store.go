package cache_store

import (
	"context"
	"errors"
	"sync_service/shared/bolt_cache"
	"time"
)

var _ Store = (*BoltStore)(nil)

// BoltStore - кэш в локальном файле, переживает перезапуск сервиса
type BoltStore struct {
	db  *bolt_cache.Store
	now func() time.Time
}

func OpenBoltStore(path, bucket string) (*BoltStore, error) {
	db, err := bolt_cache.Open(path, bolt_cache.Options{Bucket: bucket})
	if err != nil {
		return nil, err
	}
	return &BoltStore{db: db, now: time.Now}, nil
}

// Get отбраковывает просроченный или битый конверт и удаляет его атомарно с проверкой
func (s *BoltStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	now := s.now()
	raw, err := s.db.GetValid(key, func(raw []byte) bool {
		env, err := decodeEnvelope(raw)
		return err == nil && env.validAt(now)
	})
	switch {
	case errors.Is(err, bolt_cache.ErrNotFound),
		errors.Is(err, bolt_cache.ErrExpired),
		errors.Is(err, bolt_cache.ErrCorrupt):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, false, nil
	}
	return env.payload, true, nil
}

func (s *BoltStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	raw := encodeEnvelope(envelope{storedAt: s.now(), ttl: ttl, payload: payload})
	return s.db.Put(key, raw, ttl)
}

func (s *BoltStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	return s.db.DeleteByPrefix(prefix)
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
