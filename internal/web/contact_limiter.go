package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/acgh213/reelfolio/internal/auth"
)

const contactEntryTTL = 30 * time.Minute

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// contactLimiter throttles public contact form posts per client IP with a
// token bucket.
type contactLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	limit    rate.Limit
	burst    int
}

func newContactLimiter(perMinute float64, burst int) *contactLimiter {
	if perMinute <= 0 {
		perMinute = 5
	}
	if burst < 1 {
		burst = 1
	}
	return &contactLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		limit:    rate.Limit(perMinute / 60),
		burst:    burst,
	}
}

func (cl *contactLimiter) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry, ok := cl.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter.Allow()
}

func (cl *contactLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cl.allow(auth.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many messages, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (cl *contactLimiter) cleanup() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cutoff := time.Now().Add(-contactEntryTTL)
	for ip, entry := range cl.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(cl.limiters, ip)
		}
	}
}

func (cl *contactLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cl.cleanup()
		}
	}
}
