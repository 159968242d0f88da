// Circuit breaker для вызовов внешних провайдеров
package circuitbreaker

import (
	"errors"
	"sync"
	"sync_service/shared/config"
	"time"
)

// Состояния Circuit Breaker
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// строковое представление состояния (для статуса провайдеров)
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Option - настройка breaker при создании
type Option func(*CircuitBreaker)

// WithFailurePredicate задаёт, какие ошибки считаются отказом.
// Ошибки, для которых predicate возвращает false, проходят насквозь и не влияют на состояние
func WithFailurePredicate(predicate func(error) bool) Option {
	return func(cb *CircuitBreaker) {
		cb.isFailure = predicate
	}
}

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		cb.now = now
	}
}

// Структура Circuit Breaker. Отказы в Closed считаются в скользящем окне windowDuration
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold    uint32
	successThreshold    uint32
	halfOpenMaxRequests uint32
	resetTimeout        time.Duration
	windowDuration      time.Duration
	isFailure           func(error) bool
	now                 func() time.Time

	state            State
	windowStart      time.Time
	failures         uint32 // отказы в текущем окне (Closed)
	successes        uint32 // успехи подряд (Half-Open)
	halfOpenInFlight uint32
	openedAt         time.Time

	totalRequests  uint32
	totalSuccesses uint32
	totalFailures  uint32
}

func NewCircuitBreaker(cfg config.CircuitBreakerConfig, opts ...Option) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.HalfOpenMaxRequests == 0 {
		cfg.HalfOpenMaxRequests = 1
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = time.Minute
	}

	cb := &CircuitBreaker{
		failureThreshold:    cfg.FailureThreshold,
		successThreshold:    cfg.SuccessThreshold,
		halfOpenMaxRequests: cfg.HalfOpenMaxRequests,
		resetTimeout:        cfg.ResetTimeout,
		windowDuration:      cfg.WindowDuration,
		isFailure:           func(err error) bool { return err != nil },
		now:                 time.Now,
		state:               StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	cb.windowStart = cb.now()
	return cb
}
