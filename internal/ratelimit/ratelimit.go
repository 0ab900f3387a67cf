// Package ratelimit provides a fixed-window request throttle keyed by
// (feature, identity). A Manager owns one limiter per feature and is meant to
// be constructed and injected by whoever composes the service, not held as
// global state.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LimitExceededError is returned when an invoker exceeds the configured limit.
type LimitExceededError struct {
	Feature    string
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for '%s': %d requests per %s, retry after %s",
		e.Feature, e.Limit, e.Window, e.RetryAfter)
}

type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter is a fixed-window counter limiter backed by an in-memory store.
// Check is safe for concurrent use.
type Limiter struct {
	requests int
	window   time.Duration

	mu      sync.Mutex
	buckets map[string]bucket
	now     func() time.Time
}

// NewLimiter creates a limiter allowing requests per window for each key.
func NewLimiter(requests int, window time.Duration) (*Limiter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &Limiter{
		requests: requests,
		window:   window,
		buckets:  make(map[string]bucket),
		now:      time.Now,
	}, nil
}

// Requests returns the configured per-window quota.
func (l *Limiter) Requests() int { return l.requests }

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// Check records one request for key. It returns (0, true) when the request is
// allowed, or (retryAfter, false) when the key is over quota. A quota of zero
// or less disables the limiter entirely.
func (l *Limiter) Check(key string) (time.Duration, bool) {
	if l.requests <= 0 {
		return 0, true
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = bucket{count: 0, windowStart: now}
	}

	elapsed := now.Sub(b.windowStart)
	if elapsed >= l.window {
		b.count = 0
		b.windowStart = now
		elapsed = 0
	}

	if b.count >= l.requests {
		retryAfter := l.window - elapsed
		if retryAfter < 0 {
			retryAfter = 0
		}
		return retryAfter, false
	}

	b.count++
	l.buckets[key] = b
	return 0, true
}

// Manager coordinates guards backed by shared limiter instances, one per
// feature. A limiter is created lazily and replaced when the feature's
// configuration changes.
type Manager struct {
	enabled        bool
	defaultQuota   int
	defaultWindow  time.Duration

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewManager creates a manager with default per-feature quota and window.
func NewManager(defaultQuota int, defaultWindow time.Duration) *Manager {
	return &Manager{
		enabled:       true,
		defaultQuota:  defaultQuota,
		defaultWindow: defaultWindow,
		limiters:      make(map[string]*Limiter),
	}
}

// NewDisabledManager creates a manager whose guards allow everything.
func NewDisabledManager() *Manager {
	m := NewManager(0, time.Second)
	m.enabled = false
	return m
}

func (m *Manager) limiter(feature string, quota int, window time.Duration) *Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter := m.limiters[feature]
	if limiter == nil || limiter.requests != quota || limiter.window != window {
		limiter, _ = NewLimiter(quota, window)
		m.limiters[feature] = limiter
	}
	return limiter
}

// GuardOption customizes a guard created by Manager.Guard.
type GuardOption func(*guardConfig)

type guardConfig struct {
	quota       int
	window      time.Duration
	fallbackKey string
}

// WithQuota overrides the manager's default request quota for this feature.
func WithQuota(quota int) GuardOption {
	return func(c *guardConfig) { c.quota = quota }
}

// WithWindow overrides the manager's default window for this feature.
func WithWindow(window time.Duration) GuardOption {
	return func(c *guardConfig) { c.window = window }
}

// WithFallbackKey sets the identity used when no key is supplied.
func WithFallbackKey(key string) GuardOption {
	return func(c *guardConfig) { c.fallbackKey = key }
}

// Guard applies a feature's limit before running wrapped operations.
type Guard struct {
	feature     string
	limiter     *Limiter
	fallbackKey string
	enabled     bool
}

// Guard returns a guard for the named feature.
func (m *Manager) Guard(feature string, opts ...GuardOption) *Guard {
	cfg := guardConfig{
		quota:       m.defaultQuota,
		window:      m.defaultWindow,
		fallbackKey: "global",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Guard{
		feature:     feature,
		limiter:     m.limiter(feature, cfg.quota, cfg.window),
		fallbackKey: cfg.fallbackKey,
		enabled:     m.enabled,
	}
}

// Allow records one request for key and returns a *LimitExceededError when the
// key is over quota. An empty key falls back to the guard's fallback key.
func (g *Guard) Allow(key string) error {
	if !g.enabled {
		return nil
	}
	if key == "" {
		key = g.fallbackKey
	}

	retryAfter, ok := g.limiter.Check(key)
	if !ok {
		return &LimitExceededError{
			Feature:    g.feature,
			Limit:      g.limiter.requests,
			Window:     g.limiter.window,
			RetryAfter: retryAfter,
		}
	}
	return nil
}

// Do enforces the limit for key, then runs fn.
func (g *Guard) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := g.Allow(key); err != nil {
		return err
	}
	return fn(ctx)
}

// Wrap returns fn guarded by g, deriving the identity key from the argument.
// A nil keyOf uses the guard's fallback key for every call.
func Wrap[A, R any](g *Guard, keyOf func(A) string, fn func(context.Context, A) (R, error)) func(context.Context, A) (R, error) {
	return func(ctx context.Context, arg A) (R, error) {
		key := ""
		if keyOf != nil {
			key = keyOf(arg)
		}
		if err := g.Allow(key); err != nil {
			var zero R
			return zero, err
		}
		return fn(ctx, arg)
	}
}
