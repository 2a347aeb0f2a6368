package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/horizon-mentorship/backend/pkg/response"
)

// RateLimiter keeps a token-bucket limiter per caller. Join attempts hit
// the provider API under some paths, so the cap also protects the provider
// quota.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	perMin   int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perMin requests per minute per
// caller, with a burst of perMin.
func NewRateLimiter(perMin int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*entry),
		perMin:   perMin,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	e, ok := rl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(float64(rl.perMin)/60.0), rl.perMin)}
		rl.limiters[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// cleanup drops limiters idle for more than ten minutes.
func (rl *RateLimiter) cleanup() {
	for range time.Tick(10 * time.Minute) {
		rl.mu.Lock()
		for k, e := range rl.limiters {
			if time.Since(e.lastSeen) > 10*time.Minute {
				delete(rl.limiters, k)
			}
		}
		rl.mu.Unlock()
	}
}

// Limit returns a middleware keyed by authenticated user ID, falling back
// to client IP for unauthenticated routes. Must run after JWT() when user
// keying is wanted.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if v, ok := c.Get(ContextUserID); ok {
			if id, ok := v.(uuid.UUID); ok {
				key = id.String()
			}
		}
		if !rl.get(key).Allow() {
			response.TooManyRequests(c, "too many requests, please slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
