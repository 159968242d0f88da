// Кэширующая обёртка над провайдерами вакансий
package fetcher

import (
	"context"
	"encoding/json"
	"sync_service/internal/cache_store"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedFetcher отдаёт свежий результат из кэша или вызывает провайдера и кэширует успешный ответ.
// Ошибки провайдера не кэшируются, сбои кэша считаются промахом
type CachedFetcher struct {
	store  cache_store.Store
	ttl    time.Duration
	logger *logging.Logger
	group  singleflight.Group // одновременные промахи по одному ключу идут к провайдеру один раз
}

func NewCachedFetcher(store cache_store.Store, ttl time.Duration, logger *logging.Logger) *CachedFetcher {
	return &CachedFetcher{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "cached_fetcher"),
	}
}

// Fetch возвращает записи провайдера по запросу. Ошибка всегда *models.ProviderError
func (f *CachedFetcher) Fetch(ctx context.Context, parser sync_interfaces.Parser, query models.Query) ([]models.CandidateRecord, error) {
	provider := parser.GetName()
	query = query.Normalize()

	key, err := CacheKey(provider, query)
	if err != nil {
		// без ключа кэш бесполезен, но поиск всё равно возможен
		f.logger.Warn("cache key failed, bypassing cache", "provider", provider, "error", err.Error())
		return f.callProvider(ctx, parser, query)
	}

	if records, ok := f.lookup(ctx, key, provider); ok {
		return records, nil
	}

	v, err, shared := f.group.Do(key, func() (interface{}, error) {
		// пока ждали очередь, ключ мог заполнить другой вызов
		if records, ok := f.lookup(ctx, key, provider); ok {
			return records, nil
		}

		records, err := f.callProvider(ctx, parser, query)
		if err != nil {
			return nil, err
		}
		f.save(ctx, key, provider, records)
		return records, nil
	})
	if err != nil {
		return nil, models.ClassifyProviderError(provider, err)
	}
	if shared {
		f.logger.Debug("provider call shared between concurrent requests", "provider", provider)
	}
	return cloneRecords(v.([]models.CandidateRecord)), nil
}

// Invalidate удаляет все закэшированные ответы провайдера
func (f *CachedFetcher) Invalidate(ctx context.Context, provider string) (int, error) {
	n, err := f.store.DeleteByPrefix(ctx, ProviderPrefix(provider))
	if err != nil {
		return n, &models.CacheError{Op: "delete", Key: ProviderPrefix(provider) + "*", Err: err}
	}
	f.logger.Info("provider cache invalidated", "provider", provider, "deleted", n)
	return n, nil
}

func (f *CachedFetcher) callProvider(ctx context.Context, parser sync_interfaces.Parser, query models.Query) ([]models.CandidateRecord, error) {
	records, err := parser.SearchVacancies(ctx, query)
	if err != nil {
		return nil, models.ClassifyProviderError(parser.GetName(), err)
	}
	if records == nil {
		// пустой, но успешный ответ кэшируется как [] и отличим от ошибки
		records = []models.CandidateRecord{}
	}
	return records, nil
}

// lookup читает кэш; любые ошибки чтения и декодирования превращаются в промах
func (f *CachedFetcher) lookup(ctx context.Context, key, provider string) ([]models.CandidateRecord, bool) {
	payload, found, err := f.store.Get(ctx, key)
	if err != nil {
		f.logCacheError(&models.CacheError{Op: "get", Key: key, Err: err}, provider)
		return nil, false
	}
	if !found {
		f.logger.Debug("cache miss", "provider", provider, "key", key)
		return nil, false
	}

	var records []models.CandidateRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		f.logCacheError(&models.CacheError{Op: "decode", Key: key, Err: err}, provider)
		return nil, false
	}
	f.logger.Debug("cache hit", "provider", provider, "key", key, "records", len(records))
	return records, true
}

func (f *CachedFetcher) save(ctx context.Context, key, provider string, records []models.CandidateRecord) {
	payload, err := json.Marshal(records)
	if err != nil {
		f.logCacheError(&models.CacheError{Op: "encode", Key: key, Err: err}, provider)
		return
	}
	if err := f.store.Set(ctx, key, payload, f.ttl); err != nil {
		f.logCacheError(&models.CacheError{Op: "set", Key: key, Err: err}, provider)
	}
}

func (f *CachedFetcher) logCacheError(err *models.CacheError, provider string) {
	f.logger.Warn("cache degraded to miss", "provider", provider, "error", err.Error())
}

// каждый вызывающий получает свою копию среза, общий результат singleflight не разделяется
func cloneRecords(in []models.CandidateRecord) []models.CandidateRecord {
	out := make([]models.CandidateRecord, len(in))
	copy(out, in)
	return out
}
