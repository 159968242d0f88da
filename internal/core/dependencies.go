// описание и инициализация всех зависимостей сервиса синхронизации
package core

import (
	"context"
	"fmt"
	"sync_service/configs"
	"sync_service/internal/aggregator"
	"sync_service/internal/cache_store"
	"sync_service/internal/fetcher"
	"sync_service/internal/parser"
	"sync_service/internal/parsers_status_manager"
	"sync_service/internal/reconciler"
	neo4jstore "sync_service/internal/storage/neo4j"
	pgstore "sync_service/internal/storage/postgres"
	supastore "sync_service/internal/storage/supabase"
	"sync_service/internal/sync_interfaces"
	"sync_service/internal/sync_manager"
	"sync_service/internal/sync_server/handlers"
	"sync_service/internal/sync_server/service"
	"sync_service/shared/config"
	"sync_service/shared/logging"
	neo4jclient "sync_service/shared/neo4j_client"
	postgresdb "sync_service/shared/postgres_db"
	"sync_service/shared/redis"
)

type closeFunc = func(ctx context.Context) error

// SyncServiceDependencies содержит все общие зависимости
type SyncServiceDependencies struct {
	Config              *configs.SyncServiceConfig
	Logger              *logging.Logger
	CacheStore          cache_store.Store
	Fetcher             *fetcher.CachedFetcher
	ParserStatusManager *parsers_status_manager.ParserStatusManager
	Aggregator          *aggregator.Aggregator
	VacancyStore        sync_interfaces.VacancyStore
	Reconciler          *reconciler.Reconciler
	SyncManager         *sync_manager.SyncManager
	SyncHandler         *handlers.SyncHandler
}

// InitDependencies собирает граф зависимостей. При ошибке уже открытые ресурсы закрываются
func InitDependencies(ctx context.Context) (deps *SyncServiceDependencies, err error) {
	conf, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(conf.LogLevel)

	var closers []closeFunc
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i](ctx)
			}
		}
	}()

	cacheStore, backend, err := newCacheStore(ctx, conf.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}
	closers = append(closers, func(context.Context) error { return cacheStore.Close() })
	logger.Info("cache store ready", "backend", backend, "ttl", conf.Cache.TTL)

	parserFactory := parser.NewDefaultParserFactory(conf.Parsers, logger)
	parsers, err := parserFactory.CreateEnabled()
	if err != nil {
		return nil, fmt.Errorf("failed to create enabled parsers: %w", err)
	}
	for _, p := range parsers {
		if c, ok := p.(interface{ Close() }); ok {
			closers = append(closers, func(context.Context) error { c.Close(); return nil })
		}
	}

	cachedFetcher := fetcher.NewCachedFetcher(cacheStore, conf.Cache.TTL, logger)
	statusManager := parsers_status_manager.NewParserStatusManager(parsers...)
	agg := aggregator.NewAggregator(parsers, cachedFetcher, statusManager, conf.Aggregator, logger)

	store, closeStore, err := newVacancyStore(ctx, conf.Reconciler.Backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create vacancy store: %w", err)
	}
	closers = append(closers, closeStore)
	logger.Info("vacancy store ready", "target", store.Target())

	rec := reconciler.NewReconciler(store, conf.Reconciler, logger)

	syncManager, err := sync_manager.NewSyncManager(agg, rec, conf.Reconciler.SyncQueueCapacity, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync manager: %w", err)
	}

	// очередь останавливается первой в StopServices, остальное закрываем в обратном порядке открытия
	shutdownClosers := make([]closeFunc, 0, len(closers)+1)
	for i := len(closers) - 1; i >= 0; i-- {
		shutdownClosers = append(shutdownClosers, closers[i])
	}
	shutdownClosers = append(shutdownClosers, func(context.Context) error { _ = logger.Sync(); return nil })

	syncService := service.NewSyncService(agg, syncManager, statusManager, cachedFetcher, logger, shutdownClosers...)
	syncHandler := handlers.NewSyncHandler(syncService, logger)

	return &SyncServiceDependencies{
		Config:              conf,
		Logger:              logger,
		CacheStore:          cacheStore,
		Fetcher:             cachedFetcher,
		ParserStatusManager: statusManager,
		Aggregator:          agg,
		VacancyStore:        store,
		Reconciler:          rec,
		SyncManager:         syncManager,
		SyncHandler:         syncHandler,
	}, nil
}

// newCacheStore открывает выбранный бэкенд кэша. Если Redis или bbolt недоступны,
// сервис продолжает работу на кэше в памяти; возвращается фактически используемый бэкенд
func newCacheStore(ctx context.Context, cfg *configs.CachesConfig, logger *logging.Logger) (cache_store.Store, string, error) {
	store, err := openCacheBackend(ctx, cfg)
	if err == nil {
		return store, cfg.Backend, nil
	}
	if cfg.Backend == configs.CacheBackendMemory {
		return nil, "", err
	}

	logger.Warn("cache backend unavailable, falling back to memory", "backend", cfg.Backend, "error", err)
	mem, memErr := cache_store.NewMemoryStore(cfg.NumOfShards, cfg.CleanUpInterval)
	if memErr != nil {
		return nil, "", memErr
	}
	return mem, configs.CacheBackendMemory, nil
}

func openCacheBackend(ctx context.Context, cfg *configs.CachesConfig) (cache_store.Store, error) {
	switch cfg.Backend {
	case configs.CacheBackendRedis:
		redisCfg, err := config.NewRedisConfigFromEnv()
		if err != nil {
			return nil, err
		}
		adapter, err := redis.NewRedisCacheAdapter(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		return cache_store.NewRedisStore(adapter), nil
	case configs.CacheBackendBolt:
		return cache_store.OpenBoltStore(cfg.BoltPath, cfg.BoltBucket)
	default:
		return cache_store.NewMemoryStore(cfg.NumOfShards, cfg.CleanUpInterval)
	}
}

// newVacancyStore подключается к выбранному хранилищу и создаёт схему, если её нет
func newVacancyStore(ctx context.Context, backend string) (sync_interfaces.VacancyStore, closeFunc, error) {
	switch backend {
	case configs.StoreBackendSupabase:
		supaCfg, err := config.NewSupabaseConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		store, err := supastore.NewVacancyStore(supaCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func(context.Context) error { return nil }, nil

	case configs.StoreBackendNeo4j:
		neoCfg, err := config.NewNeo4jConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		client, err := neo4jclient.NewClient(ctx, neoCfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := neo4jstore.NewVacancyRepository(client)
		if err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		return repo, client.Close, nil

	case configs.StoreBackendPostgres:
		pgCfg, err := config.NewPostgresDBConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		pgRepo, err := postgresdb.NewPgRepo(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		pool := postgresdb.NewPoolAdapter(pgRepo)
		repo, err := pgstore.NewVacancyRepository(pool, pgstore.DefaultTable)
		if err != nil {
			pgRepo.Close()
			return nil, nil, err
		}
		if pgCfg.AutoMigrate {
			if err := repo.EnsureSchema(ctx); err != nil {
				pgRepo.Close()
				return nil, nil, err
			}
		}
		return repo, func(context.Context) error { return pool.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", configs.ErrUnknownStoreBackend, backend)
	}
}
