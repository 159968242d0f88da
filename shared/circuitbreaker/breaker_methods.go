package circuitbreaker

import "time"

// Execute выполняет операцию с защитой Circuit Breaker. Ошибка fn возвращается без изменений
func (cb *CircuitBreaker) Execute(fn func() error) error {
	halfOpen, err := cb.beforeCall()
	if err != nil {
		return err
	}

	err = fn()
	cb.afterCall(halfOpen, err)
	return err
}

// beforeCall решает, пропускать ли вызов, и резервирует слот в Half-Open
func (cb *CircuitBreaker) beforeCall() (halfOpen bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	switch cb.state {
	case StateOpen:
		if now.Sub(cb.openedAt) < cb.resetTimeout {
			return false, ErrCircuitOpen
		}
		cb.toHalfOpen()
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.halfOpenMaxRequests {
			return false, ErrTooManyRequests
		}
		cb.halfOpenInFlight++
		cb.totalRequests++
		return true, nil

	default:
		if now.Sub(cb.windowStart) >= cb.windowDuration {
			cb.windowStart = now
			cb.failures = 0
		}
		cb.totalRequests++
		return false, nil
	}
}

func (cb *CircuitBreaker) afterCall(halfOpen bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := err != nil && cb.isFailure(err)
	if failed {
		cb.totalFailures++
	} else {
		cb.totalSuccesses++
	}

	if halfOpen {
		cb.halfOpenInFlight--
		// состояние могло смениться, пока шёл вызов
		if cb.state != StateHalfOpen {
			return
		}
		if failed {
			cb.toOpen()
			return
		}
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.toClosed()
		}
		return
	}

	if cb.state != StateClosed {
		return
	}
	if failed {
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.toOpen()
		}
		return
	}
	cb.failures = 0
}

// переходы состояний, мьютекс уже захвачен вызывающим кодом
func (cb *CircuitBreaker) toOpen() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) toHalfOpen() {
	cb.state = StateHalfOpen
	cb.successes = 0
	cb.halfOpenInFlight = 0
}

func (cb *CircuitBreaker) toClosed() {
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.windowStart = cb.now()
}

// State возвращает текущее состояние. Open с истёкшим resetTimeout отдаётся как Half-Open
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// GetStats возвращает статистику
func (cb *CircuitBreaker) GetStats() (total, success, failure uint32) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.totalRequests, cb.totalSuccesses, cb.totalFailures
}

// OpenedFor - сколько breaker уже открыт; 0, если не открыт
func (cb *CircuitBreaker) OpenedFor() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != StateOpen {
		return 0
	}
	return cb.now().Sub(cb.openedAt)
}
