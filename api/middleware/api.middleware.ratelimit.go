package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/bartech/facilityhub/internal/errors"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// RateLimiter enforces a fixed-window request limit per client IP, backed by
// Redis so the limit holds across replicas. Redis outages fail open.
type RateLimiter struct {
	client   *redis.Client
	requests int
	window   time.Duration
}

func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:   client,
		requests: requests,
		window:   window,
	}
}

// Limit wraps a handler with the rate limit check.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("ratelimit:%s", clientIP(r))

		count, err := rl.client.Incr(r.Context(), key).Result()
		if err != nil {
			nuts.L.Warnf("[RateLimit] Redis unavailable, allowing request: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			rl.client.Expire(r.Context(), key, rl.window)
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		remaining := int64(rl.requests) - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.requests) {
			handleError(w, errors.NewRateLimitError("too many requests", nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
