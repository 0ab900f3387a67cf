package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterQuotaAndWindowReset(t *testing.T) {
	limiter, err := NewLimiter(2, 3*time.Second)
	require.NoError(t, err)

	now := time.Now()
	limiter.now = func() time.Time { return now }

	_, ok := limiter.Check("user-a")
	assert.True(t, ok)
	_, ok = limiter.Check("user-a")
	assert.True(t, ok)

	retryAfter, ok := limiter.Check("user-a")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))

	// window elapses, counter resets
	now = now.Add(3 * time.Second)
	_, ok = limiter.Check("user-a")
	assert.True(t, ok)
}

func TestLimiterIsolatesKeys(t *testing.T) {
	limiter, err := NewLimiter(1, time.Minute)
	require.NoError(t, err)

	_, ok := limiter.Check("user-a")
	assert.True(t, ok)
	_, ok = limiter.Check("user-a")
	assert.False(t, ok)

	_, ok = limiter.Check("user-b")
	assert.True(t, ok)
}

func TestLimiterZeroQuotaDisables(t *testing.T) {
	limiter, err := NewLimiter(0, time.Second)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, ok := limiter.Check("anyone")
		assert.True(t, ok)
	}
}

func TestLimiterRejectsNonPositiveWindow(t *testing.T) {
	_, err := NewLimiter(5, 0)
	assert.Error(t, err)
}

func TestLimiterConcurrentChecks(t *testing.T) {
	limiter, err := NewLimiter(50, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := limiter.Check("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestGuardAllowReturnsTypedError(t *testing.T) {
	manager := NewManager(1, time.Minute)
	guard := manager.Guard("daily_update:chat", WithQuota(1), WithWindow(30*time.Second))

	require.NoError(t, guard.Allow("user-1"))

	err := guard.Allow("user-1")
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, "daily_update:chat", limitErr.Feature)
	assert.Equal(t, 1, limitErr.Limit)
	assert.Equal(t, 30*time.Second, limitErr.Window)
	assert.Greater(t, limitErr.RetryAfter, time.Duration(0))
}

func TestGuardFallbackKey(t *testing.T) {
	manager := NewManager(1, time.Minute)
	guard := manager.Guard("insights", WithFallbackKey("anonymous"))

	require.NoError(t, guard.Allow(""))
	// same fallback identity is now exhausted
	assert.Error(t, guard.Allow(""))
}

func TestManagerReplacesLimiterOnConfigChange(t *testing.T) {
	manager := NewManager(1, time.Minute)

	guard := manager.Guard("parse")
	require.NoError(t, guard.Allow("u"))
	require.Error(t, guard.Allow("u"))

	// re-guarding with a bigger quota swaps in a fresh limiter
	guard = manager.Guard("parse", WithQuota(5))
	require.NoError(t, guard.Allow("u"))
}

func TestDisabledManagerAllowsEverything(t *testing.T) {
	manager := NewDisabledManager()
	guard := manager.Guard("daily_update:chat")

	for i := 0; i < 10; i++ {
		require.NoError(t, guard.Allow("user-1"))
	}
}

func TestWrapBlocksBeforeInvocation(t *testing.T) {
	manager := NewManager(1, time.Minute)
	guard := manager.Guard("daily_update:chat")

	calls := 0
	fn := Wrap(guard, func(owner string) string { return owner }, func(ctx context.Context, owner string) (int, error) {
		calls++
		return calls, nil
	})

	n, err := fn(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = fn(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "wrapped operation must not run when blocked")

	// a different identity is unaffected
	_, err = fn(context.Background(), "user-2")
	require.NoError(t, err)
}
