package middlewares

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/notification-hub/utils"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

var errTooManyRequests = errors.New("Too many requests, please slow down")

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key (client IP, application id, ...).
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	key     func(c *gin.Context) string
	entries map[string]*limiterEntry
	mu      sync.Mutex
}

func NewRateLimiter(limit rate.Limit, burst int, key func(c *gin.Context) string) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		burst:   burst,
		key:     key,
		entries: make(map[string]*limiterEntry),
	}
}

// ByClientIP keys requests by the caller address.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByParam keys requests by a route parameter.
func ByParam(name string) func(c *gin.Context) string {
	return func(c *gin.Context) string {
		return c.Param(name)
	}
}

// NewStrictRateLimiter allows 5 requests per minute per IP, for login and register.
func NewStrictRateLimiter() gin.HandlerFunc {
	return NewRateLimiter(rate.Every(time.Minute/5), 5, ByClientIP).RateLimit()
}

func (rl *RateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		if len(rl.entries) > 10000 {
			for k, e := range rl.entries {
				if now.Sub(e.lastSeen) > limiterIdleTTL {
					delete(rl.entries, k)
				}
			}
		}
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.entries[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(rl.key(c)) {
			utils.AbortWithError(c, http.StatusTooManyRequests, errTooManyRequests)
			return
		}
		c.Next()
	}
}
