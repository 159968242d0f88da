package config

import "time"

// структура конфига для circuit breaker
type CircuitBreakerConfig struct {
	FailureThreshold    uint32        `yaml:"failure_threshold"`      // Макс кол-во ошибок до перехода в Open
	SuccessThreshold    uint32        `yaml:"success_threshold"`      // Кол-во успешных запросов для перехода в Closed
	HalfOpenMaxRequests uint32        `yaml:"half_open_max_requests"` // Макс запросов в Half-Open состоянии
	ResetTimeout        time.Duration `yaml:"reset_timeout"`          // Время ожидания перед Half-Open
	WindowDuration      time.Duration `yaml:"window_duration"`        // Время для подсчета статистики
}

// конструктор конфига circuit breaker
func NewCircuitBreakerConfig(failureThreshold, successThreshold, halfOpenMaxRequests uint32, resetTimeout, windowDuration time.Duration) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    failureThreshold,
		SuccessThreshold:    successThreshold,
		HalfOpenMaxRequests: halfOpenMaxRequests,
		ResetTimeout:        resetTimeout,
		WindowDuration:      windowDuration,
	}
}
