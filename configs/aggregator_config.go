package configs

import "time"

// структура конфига агрегатора
type AggregatorConfig struct {
	SearchTimeout    time.Duration `yaml:"search_timeout"`    // общий таймаут на опрос всех провайдеров
	ProviderTimeout  time.Duration `yaml:"provider_timeout"`  // таймаут одного провайдера (включая ожидание rate limiter)
	ProviderPriority []string      `yaml:"provider_priority"` // порядок провайдеров при равной полноте записей
}

func DefaultAggregatorConfig() *AggregatorConfig {
	return &AggregatorConfig{
		SearchTimeout:   30 * time.Second,
		ProviderTimeout: 20 * time.Second,
	}
}
