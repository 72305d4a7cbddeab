package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether one more request for key is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// TokenBucketLimiter implements token bucket rate limiting in process memory.
type TokenBucketLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
	idleTTL    time.Duration
	now        func() time.Time
	done       chan struct{}
	closeOnce  sync.Once
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucketLimiter creates a limiter holding at most maxTokens per key
// and regaining one token every refillRate. Idle buckets are dropped by a
// background sweep until Close is called.
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		idleTTL:    time.Hour,
		now:        time.Now,
		done:       make(chan struct{}),
	}
	go l.cleanup(5 * time.Minute)
	return l
}

// Allow takes a token for key if one is available.
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[key] = b
	}

	if refill := int(now.Sub(b.lastRefill) / l.refillRate); refill > 0 {
		b.tokens = min(b.tokens+refill, l.maxTokens)
		b.lastRefill = b.lastRefill.Add(time.Duration(refill) * l.refillRate)
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Close stops the background sweep.
func (l *TokenBucketLimiter) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *TokenBucketLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, b := range l.buckets {
				if now.Sub(b.lastRefill) > l.idleTTL {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// NewIPRateLimiter creates a per-minute token bucket for client addresses.
func NewIPRateLimiter(requestsPerMinute int) *TokenBucketLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return NewTokenBucketLimiter(requestsPerMinute, time.Minute/time.Duration(requestsPerMinute))
}

// RedisRateLimiter is a fixed-window limiter shared by every instance that
// talks to the same Redis.
type RedisRateLimiter struct {
	client    redis.Cmdable
	limit     int
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

// NewRedisRateLimiter creates a limiter allowing limit requests per window.
func NewRedisRateLimiter(client redis.Cmdable, limit int, window time.Duration, keyPrefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Allow counts the request in the current window.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowStart := r.now().Truncate(r.window)
	k := fmt.Sprintf("ratelimit:%s:%s:%d", r.keyPrefix, key, windowStart.Unix())

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= int64(r.limit), nil
}
