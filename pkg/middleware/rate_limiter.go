package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prohmpiriya/booking-rush-checkin/pkg/response"
)

// RateLimitConfig holds scan rate limiting configuration
type RateLimitConfig struct {
	// Scans per second per operator (0 = unlimited)
	ScansPerSecond int
	// Burst size (token bucket capacity)
	BurstSize int
	// Cleanup interval for idle buckets
	CleanupInterval time.Duration
	// Buckets idle longer than this are dropped
	EntryTTL time.Duration
}

// DefaultRateLimitConfig returns sensible defaults for a handheld scanner
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		ScansPerSecond:  10,
		BurstSize:       20,
		CleanupInterval: time.Minute,
		EntryTTL:        5 * time.Minute,
	}
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
	// removed is set under mu once cleanup has dropped the bucket from the map
	removed bool
	mu      sync.Mutex
}

// ScanRateLimiter is an in-memory token bucket keyed by operator
type ScanRateLimiter struct {
	config  RateLimitConfig
	buckets sync.Map
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time

	totalAllowed  uint64
	totalRejected uint64
}

// NewScanRateLimiter creates a limiter and starts its cleanup goroutine
func NewScanRateLimiter(config RateLimitConfig) *ScanRateLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Minute
	}
	if config.EntryTTL <= 0 {
		config.EntryTTL = 5 * time.Minute
	}
	if config.BurstSize <= 0 {
		config.BurstSize = max(1, config.ScansPerSecond)
	}

	rl := &ScanRateLimiter{
		config: config,
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	go rl.cleanup()
	return rl
}

// Allow takes one token from key's bucket
func (rl *ScanRateLimiter) Allow(key string) bool {
	if rl.config.ScansPerSecond <= 0 {
		return true
	}

	now := rl.now()
	b := rl.lockBucket(key, now)
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = min(float64(rl.config.BurstSize), b.tokens+elapsed*float64(rl.config.ScansPerSecond))
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		atomic.AddUint64(&rl.totalAllowed, 1)
		return true
	}

	atomic.AddUint64(&rl.totalRejected, 1)
	return false
}

// Stats returns allowed and rejected totals
func (rl *ScanRateLimiter) Stats() (allowed, rejected uint64) {
	return atomic.LoadUint64(&rl.totalAllowed), atomic.LoadUint64(&rl.totalRejected)
}

// lockBucket returns key's bucket locked. A bucket evicted between the
// load and the lock is skipped so tokens are never taken from it.
func (rl *ScanRateLimiter) lockBucket(key string, now time.Time) *bucket {
	for {
		v, _ := rl.buckets.LoadOrStore(key, &bucket{
			tokens:     float64(rl.config.BurstSize),
			lastUpdate: now,
		})
		b := v.(*bucket)
		b.mu.Lock()
		if !b.removed {
			return b
		}
		b.mu.Unlock()
	}
}

func (rl *ScanRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(rl.now().Add(-rl.config.EntryTTL))
		case <-rl.stop:
			return
		}
	}
}

// sweep drops buckets idle since before cutoff
func (rl *ScanRateLimiter) sweep(cutoff time.Time) {
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		if b.lastUpdate.Before(cutoff) {
			rl.evict(key, b)
		}
		b.mu.Unlock()
		return true
	})
}

// evict removes b from the map. The caller holds b.mu.
func (rl *ScanRateLimiter) evict(key any, b *bucket) {
	b.removed = true
	rl.buckets.CompareAndDelete(key, b)
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *ScanRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// ScanRateLimit rejects requests over the limit with 429.
// Requests are keyed by operator, falling back to client IP before auth.
func ScanRateLimit(rl *ScanRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := GetOperatorID(c)
		if !ok || key == "" {
			key = "ip:" + getClientIP(c)
		}

		if !rl.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Error(response.ErrCodeRateLimited, "Too many scans, slow down"))
			return
		}

		c.Next()
	}
}
