// Фабрика с регистрацией парсеров.
// На вход фабрики подаётся тип парсера, конфиг для нужного парсера и его конструктор
package parser

import (
	"fmt"
	"sort"
	"sync"
	"sync_service/configs"
	"sync_service/internal/domain/models"
	"sync_service/internal/sync_interfaces"
	"sync_service/shared/logging"
)

// ParserType тип парсера
type ParserType string

const (
	ParserTypeHH ParserType = "hh"
	ParserTypeSJ ParserType = "superjob"
)

// ParserConstructor функция-конструктор парсера
type ParserConstructor func(cfg *configs.ParserInstanceConfig, logger *logging.Logger) (sync_interfaces.Parser, error)

// ParserFactory фабрика парсеров
type ParserFactory struct {
	constructors map[ParserType]ParserConstructor
	configs      map[ParserType]*configs.ParserInstanceConfig
	logger       *logging.Logger
	mu           sync.RWMutex
}

// NewParserFactory создает новую фабрику
func NewParserFactory(logger *logging.Logger) *ParserFactory {
	return &ParserFactory{
		constructors: make(map[ParserType]ParserConstructor),
		configs:      make(map[ParserType]*configs.ParserInstanceConfig),
		logger:       logger,
	}
}

// NewDefaultParserFactory регистрирует все известные провайдеры по конфигу
func NewDefaultParserFactory(cfg *configs.ParsersConfig, logger *logging.Logger) *ParserFactory {
	f := NewParserFactory(logger)
	if cfg == nil {
		cfg = configs.DefaultParsersConfig()
	}
	f.Register(ParserTypeHH, cfg.HH, NewHHParser)
	f.Register(ParserTypeSJ, cfg.SuperJob, NewSJParser)
	return f
}

// Register регистрирует конструктор парсера и конфиг
func (f *ParserFactory) Register(parserType ParserType, cfg *configs.ParserInstanceConfig, constructor ParserConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.constructors[parserType] = constructor
	f.configs[parserType] = cfg
}

// Create - создает парсер, если он был зарегистрирован в фабрике
func (f *ParserFactory) Create(parserType ParserType) (sync_interfaces.Parser, error) {
	f.mu.RLock()
	constructor, ok := f.constructors[parserType]
	cfg := f.configs[parserType]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownProvider, parserType)
	}
	return constructor(cfg, f.logger)
}

// CreateEnabled создает парсеры, у которых в конфиге enabled: true.
// Если хоть один из них не создан - возвращается ошибка
func (f *ParserFactory) CreateEnabled() ([]sync_interfaces.Parser, error) {
	f.mu.RLock()
	var enabled []ParserType
	for t, cfg := range f.configs {
		if cfg != nil && cfg.Enabled {
			enabled = append(enabled, t)
		}
	}
	f.mu.RUnlock()
	// порядок создания не должен зависеть от обхода мапы
	sort.Slice(enabled, func(i, j int) bool { return enabled[i] < enabled[j] })

	if len(enabled) == 0 {
		return nil, models.ErrNoProviders
	}

	parsers := make([]sync_interfaces.Parser, 0, len(enabled))
	for _, parserType := range enabled {
		p, err := f.Create(parserType)
		if err != nil {
			return nil, fmt.Errorf("failed to create parser %s: %w", parserType, err)
		}
		parsers = append(parsers, p)
	}
	return parsers, nil
}
