package configs

import (
	"errors"
	"fmt"
)

// бэкенды постоянного хранилища вакансий
const (
	StoreBackendPostgres = "postgres"
	StoreBackendSupabase = "supabase"
	StoreBackendNeo4j    = "neo4j"
)

var ErrUnknownStoreBackend = errors.New("unknown store backend")

// MaxWriteBatchSize - пачка из 13 параметров на строку должна уложиться в 65535 параметров запроса PostgreSQL
const MaxWriteBatchSize = 5000

// структура конфига сверки с хранилищем
type ReconcilerConfig struct {
	Backend            string `yaml:"backend"`              // postgres | supabase | neo4j
	ExistenceChunkSize int    `yaml:"existence_chunk_size"` // максимум кандидатов в одном запросе проверки существования
	WriteBatchSize     int    `yaml:"write_batch_size"`     // максимум записей в одной пачке вставки/обновления
	SyncQueueCapacity  int    `yaml:"sync_queue_capacity"`  // ёмкость очереди задач синхронизации
}

func DefaultReconcilerConfig() *ReconcilerConfig {
	return &ReconcilerConfig{
		Backend:            StoreBackendPostgres,
		ExistenceChunkSize: 1000,
		WriteBatchSize:     500,
		SyncQueueCapacity:  32,
	}
}

func (c *ReconcilerConfig) Validate() error {
	switch c.Backend {
	case StoreBackendPostgres, StoreBackendSupabase, StoreBackendNeo4j:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStoreBackend, c.Backend)
	}
	if c.ExistenceChunkSize <= 0 {
		return fmt.Errorf("existence_chunk_size must be positive, got %d", c.ExistenceChunkSize)
	}
	if c.WriteBatchSize <= 0 || c.WriteBatchSize > MaxWriteBatchSize {
		return fmt.Errorf("write_batch_size must be in [1, %d], got %d", MaxWriteBatchSize, c.WriteBatchSize)
	}
	if c.SyncQueueCapacity <= 0 {
		return fmt.Errorf("sync_queue_capacity must be positive, got %d", c.SyncQueueCapacity)
	}
	return nil
}
