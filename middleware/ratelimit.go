package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobfill/utils"
)

// RateLimiter counts requests per caller in fixed windows. Callers are keyed
// by authenticated user when one is on the context, else by client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     int           // requests per window
	window   time.Duration // time window
	now      func() time.Time
}

// visitor tracks requests from one caller
type visitor struct {
	windowStart time.Time
	count       int
}

func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
	}
}

// ClassifyRateLimiter bounds model calls per user.
func ClassifyRateLimiter() *RateLimiter {
	return NewRateLimiter(10, time.Minute)
}

// Limit returns a middleware that rejects callers over their budget with 429.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := callerKey(c)
		retry, ok := rl.allow(key)
		if !ok {
			utils.LogDebug("rate limited", zap.String("caller", key), zap.Duration("retry_after", retry))
			c.Header("Retry-After", fmt.Sprint(int(math.Ceil(retry.Seconds()))))
			utils.TooManyRequestsError(c, retry.Seconds())
			return
		}
		c.Next()
	}
}

// allow records one request and reports whether it is within budget. When it
// is not, the time until the window resets is returned.
func (rl *RateLimiter) allow(key string) (time.Duration, bool) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists || now.Sub(v.windowStart) > rl.window {
		rl.visitors[key] = &visitor{windowStart: now, count: 1}
		return 0, true
	}
	if v.count >= rl.rate {
		return rl.window - now.Sub(v.windowStart), false
	}
	v.count++
	return 0, true
}

func callerKey(c *gin.Context) string {
	if id, ok := c.Get(UserIDKey); ok {
		return fmt.Sprintf("user:%v", id)
	}
	return "ip:" + c.ClientIP()
}

// Cleanup drops idle callers every interval until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.visitors {
		if now.Sub(v.windowStart) > rl.window*2 {
			delete(rl.visitors, key)
		}
	}
}
