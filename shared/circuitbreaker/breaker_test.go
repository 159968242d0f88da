package circuitbreaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"sync_service/shared/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() config.CircuitBreakerConfig {
	return config.NewCircuitBreakerConfig(3, 2, 1, 10*time.Second, time.Minute)
}

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestDefaults(t *testing.T) {
	cb := NewCircuitBreaker(config.CircuitBreakerConfig{})
	assert.Equal(t, uint32(5), cb.failureThreshold)
	assert.Equal(t, uint32(2), cb.successThreshold)
	assert.Equal(t, uint32(1), cb.halfOpenMaxRequests)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
	assert.Equal(t, time.Minute, cb.windowDuration)
	assert.Equal(t, StateClosed, cb.State())
}

func TestOpensAfterThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(testConfig(), WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBoom)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(testConfig())

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	require.NoError(t, cb.Execute(succeed))
	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestFailuresOutsideWindowAreForgotten(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(testConfig(), WithClock(clock.Now))

	_ = cb.Execute(fail)
	_ = cb.Execute(fail)
	clock.Advance(2 * time.Minute)
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State())
}

func TestIgnoredErrorsDoNotTrip(t *testing.T) {
	errClient := errors.New("bad request")
	cb := NewCircuitBreaker(testConfig(), WithFailurePredicate(func(err error) bool {
		return !errors.Is(err, errClient)
	}))

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errClient }), errClient)
	}
	assert.Equal(t, StateClosed, cb.State())

	total, success, failure := cb.GetStats()
	assert.Equal(t, uint32(10), total)
	assert.Equal(t, uint32(10), success)
	assert.Zero(t, failure)
}

func TestHalfOpenRecovery(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(testConfig(), WithClock(clock.Now))
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	require.Equal(t, StateOpen, cb.State())
	assert.Equal(t, time.Duration(0), cb.OpenedFor())

	clock.Advance(11 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(testConfig(), WithClock(clock.Now))
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	clock.Advance(11 * time.Second)

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)
}

func TestHalfOpenLimitsConcurrentProbes(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker(testConfig(), WithClock(clock.Now))
	for i := 0; i < 3; i++ {
		_ = cb.Execute(fail)
	}
	clock.Advance(11 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = cb.Execute(func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	assert.ErrorIs(t, cb.Execute(succeed), ErrTooManyRequests)
	close(release)
}

func TestConcurrentExecute(t *testing.T) {
	cb := NewCircuitBreaker(config.NewCircuitBreakerConfig(1000, 1, 1, time.Second, time.Minute))

	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = cb.Execute(func() error {
				atomic.AddInt32(&calls, 1)
				if i%2 == 0 {
					return errBoom
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	total, success, failure := cb.GetStats()
	assert.Equal(t, uint32(50), total)
	assert.Equal(t, uint32(25), success)
	assert.Equal(t, uint32(25), failure)
	assert.Equal(t, int32(50), calls)
}
