package rate_limiter

import (
	"context"
	"sort"
	"sync"
	"sync_service/shared/interfaces"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rate = 50 * time.Millisecond
)

// проверяем создание и использование rate limiter
func TestNewChannelRateLimiter(t *testing.T) {
	t.Run("creates with valid rate", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(rate)
		require.NoError(t, err)
		defer rl.Stop()

		assert.Equal(t, rate, rl.interval)
	})

	// проверяем, что экземпляр rate limiter соответствует интерфейсу interfaces.RateLimiter
	t.Run("implements RateLimiter interface", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(time.Second)
		require.NoError(t, err)
		defer rl.Stop()

		var _ interfaces.RateLimiter = rl
	})

	t.Run("zero and negative rate", func(t *testing.T) {
		for _, r := range []time.Duration{0, -10 * time.Millisecond} {
			rl, err := NewChannelRateLimiter(r)
			assert.Error(t, err)
			assert.Nil(t, rl)
		}
	})
}

// проверяем корректность интервалов времени у метода Wait(ctx)
func TestChannelRateLimiter_Wait(t *testing.T) {
	t.Run("allows first request immediately", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(time.Second)
		require.NoError(t, err)
		defer rl.Stop()

		start := time.Now()
		require.NoError(t, rl.Wait(context.Background()))
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("second request waits for tick", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(rate)
		require.NoError(t, err)
		defer rl.Stop()

		ctx := context.Background()
		require.NoError(t, rl.Wait(ctx))

		start := time.Now()
		require.NoError(t, rl.Wait(ctx))
		// допускаем погрешность планировщика
		assert.GreaterOrEqual(t, time.Since(start), rate-15*time.Millisecond)
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(time.Hour)
		require.NoError(t, err)
		defer rl.Stop()

		require.NoError(t, rl.Wait(context.Background())) // забираем стартовый токен

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, rl.Wait(ctx), context.DeadlineExceeded)
	})
}

// проверяем механизм остановки rate limiter
func TestChannelRateLimiter_Stop(t *testing.T) {
	t.Run("stop wakes waiters", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(time.Hour)
		require.NoError(t, err)
		require.NoError(t, rl.Wait(context.Background()))

		errCh := make(chan error, 1)
		go func() { errCh <- rl.Wait(context.Background()) }()

		time.Sleep(10 * time.Millisecond)
		rl.Stop()

		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, ErrStopped)
		case <-time.After(time.Second):
			t.Fatal("waiter was not released by Stop")
		}
	})

	t.Run("idle time does not accumulate slots", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(time.Minute)
		require.NoError(t, err)
		defer rl.Stop()

		current := time.Unix(1_700_000_000, 0)
		rl.now = func() time.Time { return current }

		assert.Zero(t, rl.reserve())
		current = current.Add(10 * time.Minute)
		assert.Zero(t, rl.reserve())
		assert.Equal(t, time.Minute, rl.reserve())
	})

	t.Run("wait after stop returns error", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(rate)
		require.NoError(t, err)
		rl.Stop()

		err = rl.Wait(context.Background())
		assert.ErrorIs(t, err, ErrStopped)
	})

	// повторный останов - не паникует
	t.Run("idempotent stop", func(t *testing.T) {
		rl, err := NewChannelRateLimiter(rate)
		require.NoError(t, err)

		assert.NotPanics(t, func() {
			rl.Stop()
			rl.Stop()
		})
	})
}

// несколько горутин делают запросы к rate limiter - все проходят, и не чаще заданного интервала
func TestChannelRateLimiter_Concurrency(t *testing.T) {
	rl, err := NewChannelRateLimiter(20 * time.Millisecond)
	require.NoError(t, err)
	defer rl.Stop()

	const total = 6
	stamps := make([]time.Time, 0, total)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rl.Wait(context.Background()))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, total)
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	// total-1 интервалов после стартового токена
	assert.GreaterOrEqual(t, stamps[total-1].Sub(stamps[0]), time.Duration(total-2)*20*time.Millisecond)
}
