package rate_limiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync_service/shared/interfaces"
	"time"
)

var ErrStopped = errors.New("rate limiter stopped")

// ChannelRateLimiter выдаёт обращения к провайдеру не чаще одного за interval.
// Каждый Wait резервирует ближайший свободный слот; простой не накапливает слоты, поэтому "залпа" после паузы нет
type ChannelRateLimiter struct {
	interval time.Duration

	mu   sync.Mutex
	next time.Time // самый ранний момент следующего обращения

	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

var _ interfaces.RateLimiter = (*ChannelRateLimiter)(nil)

// NewChannelRateLimiter создаёт лимитер; первое обращение проходит сразу
func NewChannelRateLimiter(interval time.Duration) (*ChannelRateLimiter, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("rate must be greater than zero, got %v", interval)
	}
	return &ChannelRateLimiter{
		interval: interval,
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Wait ждёт своего слота, отмены ctx или остановки лимитера
func (rl *ChannelRateLimiter) Wait(ctx context.Context) error {
	select {
	case <-rl.done:
		return ErrStopped
	default:
	}

	delay := rl.reserve()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.done:
		return ErrStopped
	case <-timer.C:
		return nil
	}
}

// reserve занимает слот и возвращает, сколько до него ждать
func (rl *ChannelRateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	slot := rl.next
	if slot.Before(now) {
		slot = now
	}
	rl.next = slot.Add(rl.interval)
	return slot.Sub(now)
}

// Stop будит всех ожидающих с ErrStopped; повторный вызов ничего не делает
func (rl *ChannelRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
