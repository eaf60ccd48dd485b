package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

// MemoryLimiter is a fixed-window counter per key, local to the process.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	now     func() time.Time
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]*rateBucket), now: time.Now}
}

func (r *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	bucket, ok := r.buckets[key]
	if !ok || now.After(bucket.windowEnd) {
		r.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(window)}
		r.sweep(now)
		return true
	}
	if bucket.count >= limit {
		return false
	}
	bucket.count++
	return true
}

// sweep drops expired buckets once the map grows.
func (r *MemoryLimiter) sweep(now time.Time) {
	if len(r.buckets) < 1024 {
		return
	}
	for k, b := range r.buckets {
		if now.After(b.windowEnd) {
			delete(r.buckets, k)
		}
	}
}

// RateLimit rejects a client IP with 429 after limit requests per window.
// A nil limiter or non-positive limit disables it.
func RateLimit(limiter Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}
		key := scope + ":" + c.ClientIP()
		if !limiter.Allow(c.Request.Context(), key, limit, window) {
			log.Warn().Str("client_ip", c.ClientIP()).Str("scope", scope).Msg("rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
