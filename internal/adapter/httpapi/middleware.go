package httpapi

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"periodicd/internal/shared"
)

// RateLimiter restricts request frequency per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	last      map[string]time.Time
	rate      time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates limiter with given rate. A zero rate allows everything.
func NewRateLimiter(rate time.Duration) *RateLimiter {
	return &RateLimiter{last: make(map[string]time.Time), rate: rate}
}

// Allow returns false if the client hits the limit.
func (r *RateLimiter) Allow(client string) bool {
	if r.rate <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if now.Sub(r.lastSweep) >= r.rate {
		r.sweep(now)
	}
	if t, ok := r.last[client]; ok && now.Sub(t) < r.rate {
		return false
	}
	r.last[client] = now
	return true
}

// sweep drops clients whose last call is older than the rate. At most one
// sweep runs per rate period.
func (r *RateLimiter) sweep(now time.Time) {
	for client, t := range r.last {
		if now.Sub(t) >= r.rate {
			delete(r.last, client)
		}
	}
	r.lastSweep = now
}

// Middleware answers 429 when the client calls again within the rate.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "too many requests"})
			return
		}
		c.Next()
	}
}

// RequireToken checks the bearer token of control requests. An empty token
// disables the check.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			abortWithError(c, fmt.Errorf("%w: control token required", shared.ErrUnauthorized))
			return
		}
		c.Next()
	}
}

// RequestLogger logs every request at debug level and server errors at error level.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			log.Error("http request failed", attrs...)
			return
		}
		log.Debug("http request", attrs...)
	}
}
