package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"showtalk/internal/metrics"
	"showtalk/internal/utils"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter throttles writes per user, or per client IP when anonymous.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *utils.TTLCache[*rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: utils.NewTTLCache[*rate.Limiter](10000),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (r *RateLimiter) limiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters.Get(key)
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
	}
	// 每次访问续期，闲置的限流器自然过期
	r.limiters.Set(key, l, limiterIdleTTL)
	return l
}

// Allow reports whether key may perform one more write now.
func (r *RateLimiter) Allow(key string) bool {
	return r.limiter(key).Allow()
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if user, ok := CurrentUser(c); ok {
			key = fmt.Sprintf("user:%d", user.ID)
		}
		if !r.Allow(key) {
			metrics.RateLimited.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
