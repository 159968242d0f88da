// общие интерфейсы инфраструктурных компонентов (rate limiter, circuit breaker, очередь)
package interfaces

import (
	"context"
	"sync_service/shared/circuitbreaker"
)

// интерфейс rate limiter
type RateLimiter interface {
	Wait(ctx context.Context) error
	Stop()
}

// интерфейс circuit breaker
type CBInterface interface {
	Execute(fn func() error) error
	GetStats() (total, success, failure uint32)
	State() circuitbreaker.State
}

// интерфейс FIFO очереди на дженериках
type FIFOQueueInterface[T any] interface {
	Enqueue(item T) bool
	Dequeue() (T, bool)
	Size() int
	Close()
}
