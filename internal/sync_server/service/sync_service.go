// сервисный слой сервера синхронизации
package service

import (
	"context"
	"fmt"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
)

// интерфейс сервисного слоя
type SyncServiceInterface interface {
	SearchVacancies(ctx context.Context, providers []string, query models.Query) (models.SearchResult, error)
	SyncVacancies(ctx context.Context, providers []string, query models.Query) (models.SyncSummary, error)
	ProviderStatuses() []models.ProviderStatus
	ClearCache(ctx context.Context, providers []string) (map[string]int, error)
	StopServices(ctx context.Context)
}

// SyncRunner - очередь синхронизаций
type SyncRunner interface {
	SyncVacancies(ctx context.Context, providers []string, query models.Query) (models.SyncSummary, error)
	Shutdown(ctx context.Context) error
}

// CacheInvalidator - сброс кэша результатов провайдера
type CacheInvalidator interface {
	Invalidate(ctx context.Context, provider string) (int, error)
}

type SyncService struct {
	searcher sync_interfaces.Searcher
	runner   SyncRunner
	statuses sync_interfaces.ParsersStatusManager
	cache    CacheInvalidator
	closers  []func(ctx context.Context) error
	logger   *logging.Logger
}

// NewSyncService; closers вызываются в StopServices после остановки очереди
func NewSyncService(
	searcher sync_interfaces.Searcher,
	runner SyncRunner,
	statuses sync_interfaces.ParsersStatusManager,
	cache CacheInvalidator,
	logger *logging.Logger,
	closers ...func(ctx context.Context) error,
) *SyncService {
	return &SyncService{
		searcher: searcher,
		runner:   runner,
		statuses: statuses,
		cache:    cache,
		closers:  closers,
		logger:   logger.With("component", "sync_service"),
	}
}

func (s *SyncService) SearchVacancies(ctx context.Context, providers []string, query models.Query) (models.SearchResult, error) {
	return s.searcher.Search(ctx, providers, query)
}

func (s *SyncService) SyncVacancies(ctx context.Context, providers []string, query models.Query) (models.SyncSummary, error) {
	return s.runner.SyncVacancies(ctx, providers, query)
}

func (s *SyncService) ProviderStatuses() []models.ProviderStatus {
	return s.statuses.GetAllStatuses()
}

// ClearCache сбрасывает кэш указанных провайдеров, пустой список - всех
func (s *SyncService) ClearCache(ctx context.Context, providers []string) (map[string]int, error) {
	known := s.searcher.ProviderNames()
	if len(providers) == 0 {
		providers = known
	}

	removed := make(map[string]int, len(providers))
	for _, p := range providers {
		if !contains(known, p) {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownProvider, p)
		}
		n, err := s.cache.Invalidate(ctx, p)
		if err != nil {
			return removed, err
		}
		removed[p] = n
	}
	s.logger.Info("cache cleared", "removed", removed)
	return removed, nil
}

// StopServices останавливает очередь синхронизаций, затем закрывает хранилища
func (s *SyncService) StopServices(ctx context.Context) {
	if err := s.runner.Shutdown(ctx); err != nil {
		s.logger.Warn("sync manager shutdown", "error", err.Error())
	}
	for _, closeFn := range s.closers {
		if err := closeFn(ctx); err != nil {
			s.logger.Warn("failed to close resource", "error", err.Error())
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
