package configs

import (
	"sync_service/shared/config"
	"time"
)

type ParsersConfig struct {
	HH       *ParserInstanceConfig `yaml:"hh"`
	SuperJob *ParserInstanceConfig `yaml:"superjob"`
}

// структура конфига для отдельного парсера
type ParserInstanceConfig struct {
	Enabled               bool                        `yaml:"enabled"`
	BaseURL               string                      `yaml:"base_url"`
	APIKey                string                      `yaml:"api_key"`
	UserAgent             string                      `yaml:"user_agent"`
	Timeout               time.Duration               `yaml:"timeout"`
	RateLimit             time.Duration               `yaml:"rate_limit"`
	MaxConcurrent         int                         `yaml:"max_concurrent"`
	MaxPages              int                         `yaml:"max_pages"` // страниц выдачи за один поиск
	CircuitBreaker        config.CircuitBreakerConfig `yaml:"circuit_breaker"`
	MaxIdleConns          int                         `yaml:"max_idle_conns"`
	IdleConnTimeout       time.Duration               `yaml:"idle_conn_timeout"`
	TLSHandshakeTimeout   time.Duration               `yaml:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration               `yaml:"response_header_timeout"`
	ExpectContinueTimeout time.Duration               `yaml:"expect_continue_timeout"`
}

func defaultCircuitBreaker() config.CircuitBreakerConfig {
	return config.NewCircuitBreakerConfig(5, 3, 2, 10*time.Second, 10*time.Second)
}

// DefaultParsersConfig возвращает конфигурацию по умолчанию
func DefaultParsersConfig() *ParsersConfig {
	return &ParsersConfig{
		HH: &ParserInstanceConfig{
			Enabled:               true,
			BaseURL:               "https://api.hh.ru/vacancies",
			UserAgent:             "vacancy-sync/1.0 (api@vacancy-sync.local)",
			Timeout:               30 * time.Second,
			RateLimit:             500 * time.Millisecond,
			MaxConcurrent:         10,
			MaxPages:              5,
			CircuitBreaker:        defaultCircuitBreaker(),
			MaxIdleConns:          5,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		SuperJob: &ParserInstanceConfig{
			Enabled:               true,
			BaseURL:               "https://api.superjob.ru/2.0/vacancies/",
			Timeout:               30 * time.Second,
			RateLimit:             500 * time.Millisecond,
			MaxConcurrent:         10,
			MaxPages:              5,
			CircuitBreaker:        defaultCircuitBreaker(),
			MaxIdleConns:          5,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
