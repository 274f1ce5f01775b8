package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a per-key sliding window limiter for the public
// endpoints, which carry no authentication.
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:     limit,
		window:    window,
		hits:      map[string][]time.Time{},
		lastSweep: time.Now(),
	}
}

func (r *rateLimiter) Allow(key string) bool {
	now := time.Now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	// Keys for clients that stopped hitting us would otherwise stay
	// in the map forever.
	if now.Sub(r.lastSweep) > r.window {
		r.sweep(cutoff)
		r.lastSweep = now
	}

	recent := r.hits[key][:0]
	for _, hit := range r.hits[key] {
		if hit.After(cutoff) {
			recent = append(recent, hit)
		}
	}

	if len(recent) >= r.limit {
		r.hits[key] = recent
		return false
	}

	r.hits[key] = append(recent, now)
	return true
}

func (r *rateLimiter) sweep(cutoff time.Time) {
	for key, hits := range r.hits {
		live := false
		for _, hit := range hits {
			if hit.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(r.hits, key)
		}
	}
}

func (s *Server) publicRateLimit(limiter *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many requests",
			}})
			return
		}
		c.Next()
	}
}
