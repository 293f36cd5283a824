package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterCleanupInterval = 5 * time.Minute

// RateLimiter keeps one token bucket per client IP. A bucket allows
// requests per window with the whole allowance available as a burst.
type RateLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	requests int
	window   time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter creates a limiter allowing requests per window per client.
func NewRateLimiter(requests int, window time.Duration, logger *slog.Logger) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		limit:       rate.Limit(float64(requests) / window.Seconds()),
		burst:       requests,
		requests:    requests,
		window:      window,
		logger:      logger,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Middleware rejects requests over the allowance with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		limiter := rl.get(key)

		if !limiter.AllowN(rl.now(), 1) {
			reservation := limiter.ReserveN(rl.now(), 1)
			delay := reservation.DelayFrom(rl.now())
			reservation.CancelAt(rl.now())
			retryAfter := max(int(delay.Seconds()), 1)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.requests))
			c.Header("X-RateLimit-Window", rl.window.String())

			rl.logger.WarnContext(c.Request.Context(), "rate limit exceeded",
				"key", key,
				"path", c.Request.URL.Path,
				"retry_after", retryAfter,
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too Many Requests"})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.limit, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

func (rl *RateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) < limiterCleanupInterval {
		return
	}
	rl.lastCleanup = now
	rl.evictIdle(now)
}

// evictIdle drops buckets that have refilled completely; their clients have
// been quiet for at least a full window.
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).TokensAt(now) >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}
