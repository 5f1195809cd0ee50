package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/huangsam/shiptalkers/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client address.
type clientLimiter struct {
	rate  rate.Limit
	burst int

	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	maxAge     time.Duration
}

func newClientLimiter(rps float64, burst int) *clientLimiter {
	return &clientLimiter{
		rate:       rate.Limit(rps),
		burst:      burst,
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
		maxAge:     10 * time.Minute,
	}
}

// allow reports whether key may make a request now.
func (l *clientLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	l.lastAccess[key] = now
	return limiter.AllowN(now, 1)
}

// prune drops limiters idle for longer than maxAge.
func (l *clientLimiter) prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.maxAge)
	removed := 0
	for key, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.limiters, key)
			delete(l.lastAccess, key)
			removed++
		}
	}
	return removed
}

// middleware rejects clients over their budget with 429.
func (l *clientLimiter) middleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !l.allow(key, time.Now()) {
				log.Warn("Rate limit exceeded", zap.String("client", key), zap.String("path", r.URL.Path))
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey returns the host part of RemoteAddr, which RealIP has already rewritten.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
