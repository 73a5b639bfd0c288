package auth

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Status is the outcome of a limiter call. ResetTime is when the identifier's
// current window ends.
type Status struct {
	Allowed   bool
	Remaining int
	ResetTime time.Time
}

// RetryAfter returns the whole seconds left until ResetTime, rounded up.
func (s Status) RetryAfter(now time.Time) int {
	d := s.ResetTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Limiter throttles failed login attempts per identifier. Implementations
// never fail: every call yields a well-formed Status.
type Limiter interface {
	// Check reports the identifier's state without recording anything.
	Check(ctx context.Context, id string) Status
	// RecordFailure counts one failed attempt. Call it at most once per
	// failed credential comparison.
	RecordFailure(ctx context.Context, id string) Status
	// Reset forgets the identifier, e.g. after a successful login.
	Reset(ctx context.Context, id string)
	// Limit is the configured maximum number of failures per window.
	Limit() int
}

// rateLimitEntry tracks failed logins for a single identifier.
type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// RateLimiter is an in-memory fixed-window limiter for failed logins.
// Expired entries are only reclaimed when their identifier is looked up
// again, or by Sweep.
type RateLimiter struct {
	mu          sync.Mutex
	entries     map[string]*rateLimitEntry
	maxAttempts int
	window      time.Duration
	now         func() time.Time // for testing
}

var _ Limiter = (*RateLimiter)(nil)

// NewRateLimiter creates a limiter that allows maxAttempts failures per
// identifier within window.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RateLimiter{
		entries:     make(map[string]*rateLimitEntry),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

func (rl *RateLimiter) Limit() int {
	return rl.maxAttempts
}

func (rl *RateLimiter) Check(_ context.Context, id string) Status {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry := rl.lookup(id, now)
	if entry == nil {
		return Status{Allowed: true, Remaining: rl.maxAttempts, ResetTime: now.Add(rl.window)}
	}
	if entry.count >= rl.maxAttempts {
		return Status{Allowed: false, Remaining: 0, ResetTime: entry.resetTime}
	}
	return Status{Allowed: true, Remaining: rl.maxAttempts - entry.count, ResetTime: entry.resetTime}
}

func (rl *RateLimiter) RecordFailure(_ context.Context, id string) Status {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry := rl.lookup(id, now)
	if entry == nil {
		resetTime := now.Add(rl.window)
		rl.entries[id] = &rateLimitEntry{count: 1, resetTime: resetTime}
		return Status{Allowed: true, Remaining: rl.maxAttempts - 1, ResetTime: resetTime}
	}

	// Saturated entries stay untouched until the window ends.
	if entry.count >= rl.maxAttempts {
		return Status{Allowed: false, Remaining: 0, ResetTime: entry.resetTime}
	}

	entry.count++
	return Status{Allowed: true, Remaining: rl.maxAttempts - entry.count, ResetTime: entry.resetTime}
}

func (rl *RateLimiter) Reset(_ context.Context, id string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.entries, id)
}

// Len returns the number of tracked identifiers, expired ones included.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.entries)
}

// Sweep removes every expired entry and returns how many were dropped.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for id, entry := range rl.entries {
		if entry.resetTime.Before(now) {
			delete(rl.entries, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (rl *RateLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// lookup returns the live entry for id, deleting it first if its window has
// passed. Must be called with rl.mu held.
func (rl *RateLimiter) lookup(id string, now time.Time) *rateLimitEntry {
	entry, ok := rl.entries[id]
	if !ok {
		return nil
	}
	if entry.resetTime.Before(now) {
		delete(rl.entries, id)
		return nil
	}
	return entry
}
