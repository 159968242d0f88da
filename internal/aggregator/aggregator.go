// Агрегатор: конкурентный опрос провайдеров через кэш, слияние и дедупликация
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
	"time"
)

type Aggregator struct {
	parsers       []sync_interfaces.Parser // порядок определяет порядок слияния результатов
	fetcher       sync_interfaces.Fetcher
	statusManager sync_interfaces.ParsersStatusManager
	dedup         *Deduplicator
	config        *configs.AggregatorConfig
	logger        *logging.Logger
}

// NewAggregator получает явный список парсеров; глобальных реестров нет
func NewAggregator(
	parsers []sync_interfaces.Parser,
	fetcher sync_interfaces.Fetcher,
	statusManager sync_interfaces.ParsersStatusManager,
	cfg *configs.AggregatorConfig,
	logger *logging.Logger,
) *Aggregator {
	defaults := configs.DefaultAggregatorConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = defaults.SearchTimeout
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaults.ProviderTimeout
	}
	return &Aggregator{
		parsers:       parsers,
		fetcher:       fetcher,
		statusManager: statusManager,
		dedup:         NewDeduplicator(cfg.ProviderPriority),
		config:        cfg,
		logger:        logger.With("component", "aggregator"),
	}
}

// ProviderNames возвращает имена всех подключённых провайдеров
func (a *Aggregator) ProviderNames() []string {
	names := make([]string, 0, len(a.parsers))
	for _, p := range a.parsers {
		names = append(names, p.GetName())
	}
	return names
}

// Search опрашивает выбранных провайдеров (все, если список пуст) и возвращает объединённый результат.
// Ошибки отдельных провайдеров попадают в SearchResult.ProviderErrors, а не в error
func (a *Aggregator) Search(ctx context.Context, providers []string, query models.Query) (models.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return models.SearchResult{}, err
	}
	query = query.Normalize()

	selected, err := a.selectParsers(providers)
	if err != nil {
		return models.SearchResult{}, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, a.config.SearchTimeout)
	defer cancel()

	outcomes := a.concurrentSearchWithTimeout(searchCtx, selected, query)

	var (
		merged []models.CandidateRecord
		result models.SearchResult
	)
	// слияние идёт в порядке выбранных провайдеров, а не в порядке завершения
	for _, o := range outcomes {
		result.Stats = append(result.Stats, models.ProviderSearchStat{
			Provider: o.provider,
			Count:    len(o.records),
			Duration: o.duration,
			Err:      o.err,
		})
		if o.err != nil {
			result.ProviderErrors = append(result.ProviderErrors, o.err)
			continue
		}
		merged = append(merged, o.records...)
	}

	records, skipped := a.dedup.Deduplicate(merged)
	result.Records = filterBySalary(records, query)
	result.DuplicatesSkipped = skipped

	a.logger.Info("search finished",
		"query", query.Text,
		"providers", len(selected),
		"records", len(result.Records),
		"duplicates", skipped,
		"provider_errors", len(result.ProviderErrors))
	return result, nil
}

// selectParsers ищет парсеры по именам; пустой список - все подключённые
func (a *Aggregator) selectParsers(names []string) ([]sync_interfaces.Parser, error) {
	if len(a.parsers) == 0 {
		return nil, models.ErrNoProviders
	}
	if len(names) == 0 {
		return a.parsers, nil
	}

	byName := make(map[string]sync_interfaces.Parser, len(a.parsers))
	for _, p := range a.parsers {
		byName[p.GetName()] = p
	}

	selected := make([]sync_interfaces.Parser, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		p, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownProvider, name)
		}
		if !seen[name] {
			seen[name] = true
			selected = append(selected, p)
		}
	}
	return selected, nil
}

type providerOutcome struct {
	provider string
	records  []models.CandidateRecord
	err      *models.ProviderError
	duration time.Duration
}

// concurrentSearchWithTimeout выполняет поиск во всех парсерах одновременно.
// Провайдер, не уложившийся в таймаут, получает ошибку timeout и не задерживает остальных
func (a *Aggregator) concurrentSearchWithTimeout(ctx context.Context, parsers []sync_interfaces.Parser, query models.Query) []providerOutcome {
	outcomes := make([]providerOutcome, len(parsers))

	var wg sync.WaitGroup
	for i, parser := range parsers {
		wg.Add(1)
		go func(i int, p sync_interfaces.Parser) {
			defer wg.Done()
			outcomes[i] = a.searchOne(ctx, p, query)
		}(i, parser)
	}
	wg.Wait()

	return outcomes
}

func (a *Aggregator) searchOne(ctx context.Context, p sync_interfaces.Parser, query models.Query) providerOutcome {
	name := p.GetName()
	providerCtx, cancel := context.WithTimeout(ctx, a.config.ProviderTimeout)
	defer cancel()

	// отдельная горутина нужна, чтобы select мог отпустить провайдера по таймауту,
	// даже если тот не уважает контекст
	resultChan := make(chan providerOutcome, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultChan <- providerOutcome{
					provider: name,
					err:      models.NewProviderError(name, models.ProviderErrTransport, fmt.Errorf("panic in provider: %v", r)),
				}
			}
		}()
		records, err := a.fetcher.Fetch(providerCtx, p, query)
		resultChan <- providerOutcome{provider: name, records: records, err: models.ClassifyProviderError(name, err)}
	}()

	var outcome providerOutcome
	select {
	case outcome = <-resultChan:
	case <-providerCtx.Done():
		outcome = providerOutcome{
			provider: name,
			err:      models.NewProviderError(name, models.ProviderErrTimeout, providerCtx.Err()),
		}
	}
	outcome.duration = time.Since(start)

	if a.statusManager != nil {
		if outcome.err != nil {
			a.statusManager.UpdateStatus(name, false, outcome.err, outcome.duration)
		} else {
			a.statusManager.UpdateStatus(name, true, nil, outcome.duration)
		}
	}

	if outcome.err != nil {
		a.logger.Warn("provider failed", "provider", name, "kind", string(outcome.err.Kind),
			"duration", outcome.duration, "error", outcome.err.Error())
	} else {
		a.logger.Debug("provider finished", "provider", name, "records", len(outcome.records), "duration", outcome.duration)
	}
	return outcome
}

// filterBySalary применяет фильтры зарплаты локально: не все провайдеры поддерживают все фильтры
func filterBySalary(records []models.CandidateRecord, q models.Query) []models.CandidateRecord {
	if q.SalaryFrom == 0 && q.SalaryTo == 0 && !q.OnlyWithSalary {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if r.MatchesSalaryFilter(q) {
			out = append(out, r)
		}
	}
	return out
}
